package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avilesmedina/tiendita-backend/api/controllers"
	"github.com/avilesmedina/tiendita-backend/api/middleware"
	cartsvc "github.com/avilesmedina/tiendita-backend/internal/cart"
	checkoutsvc "github.com/avilesmedina/tiendita-backend/internal/checkout"
	"github.com/avilesmedina/tiendita-backend/internal/inventory"
	"github.com/avilesmedina/tiendita-backend/internal/orders"
	"github.com/avilesmedina/tiendita-backend/internal/products"
	"github.com/avilesmedina/tiendita-backend/pkg/config"
	"github.com/avilesmedina/tiendita-backend/pkg/db"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
	"github.com/avilesmedina/tiendita-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Gatherer  prometheus.Gatherer
	CartStore *cartsvc.Store
	Products  products.Service
	Inventory inventory.Service
	Cart      cartsvc.Service
	Checkout  checkoutsvc.Service
	Orders    orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Post("/", controllers.ProductCreate(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(deps.Products, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/restock", controllers.InventoryRestock(deps.Inventory, logg))
			r.Post("/adjust", controllers.InventoryAdjust(deps.Inventory, logg))
			r.Get("/snapshot", controllers.InventorySnapshot(deps.Inventory, logg))
			r.Get("/low-stock", controllers.InventoryLowStock(deps.Inventory, logg))
			r.Get("/ledger-audit", controllers.InventoryLedgerAudit(deps.Inventory, logg))
			r.Get("/{productId}", controllers.InventoryAvailability(deps.Inventory, logg))
			r.Get("/{productId}/history", controllers.InventoryHistory(deps.Inventory, logg))
		})

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", controllers.CartCreate(deps.CartStore, logg))
			r.Get("/{cartId}", controllers.CartFetch(deps.CartStore, deps.Cart, logg))
			r.Post("/{cartId}/items", controllers.CartAddItem(deps.CartStore, deps.Cart, logg))
			r.Put("/{cartId}/items/{productId}", controllers.CartSetItem(deps.CartStore, deps.Cart, logg))
			r.Delete("/{cartId}/items/{productId}", controllers.CartRemoveItem(deps.CartStore, deps.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, deps.CartStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Post("/{orderId}/transition", controllers.OrderTransition(deps.Orders, logg))
			r.Post("/{orderId}/delivery-attempts", controllers.OrderDeliveryAttempt(deps.Orders, logg))
		})
	})

	return r
}
