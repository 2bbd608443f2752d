package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/avilesmedina/tiendita-backend/api/routes"
	cartsvc "github.com/avilesmedina/tiendita-backend/internal/cart"
	checkoutsvc "github.com/avilesmedina/tiendita-backend/internal/checkout"
	"github.com/avilesmedina/tiendita-backend/internal/inventory"
	"github.com/avilesmedina/tiendita-backend/internal/notifications"
	"github.com/avilesmedina/tiendita-backend/internal/orders"
	"github.com/avilesmedina/tiendita-backend/internal/products"
	"github.com/avilesmedina/tiendita-backend/pkg/config"
	"github.com/avilesmedina/tiendita-backend/pkg/db"
	"github.com/avilesmedina/tiendita-backend/pkg/env"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
	"github.com/avilesmedina/tiendita-backend/pkg/metrics"
	"github.com/avilesmedina/tiendita-backend/pkg/migrate"
	"github.com/avilesmedina/tiendita-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	retailMetrics := metrics.NewRetailMetrics(prometheus.DefaultRegisterer)

	sink, err := notifications.NewLogSink(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification sink", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(products.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), dbClient, cfg.Retail, logg, retailMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(productsService, inventoryService, cfg.Retail)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	cartStore, err := cartsvc.NewStore(redisClient, 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, inventoryService, sink, cfg.Retail, logg, retailMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(ordersRepo, dbClient, inventoryService, sink, cfg.Retail, logg, retailMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Gatherer:  prometheus.DefaultGatherer,
			CartStore: cartStore,
			Products:  productsService,
			Inventory: inventoryService,
			Cart:      cartService,
			Checkout:  checkoutService,
			Orders:    ordersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
