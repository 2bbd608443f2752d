package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avilesmedina/tiendita-backend/api/responses"
	"github.com/avilesmedina/tiendita-backend/api/validators"
	cartsvc "github.com/avilesmedina/tiendita-backend/internal/cart"
	checkoutsvc "github.com/avilesmedina/tiendita-backend/internal/checkout"
	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
)

type checkoutRequest struct {
	CartID        uuid.UUID `json:"cart_id" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"required,oneof=cash card online"`
	CustomerName  *string   `json:"customer_name,omitempty"`
	CustomerPhone *string   `json:"customer_phone,omitempty"`
	Immediate     bool      `json:"immediate"`
}

type checkoutResponse struct {
	Order    orderResponse `json:"order"`
	Replayed bool          `json:"replayed"`
}

type orderResponse struct {
	ID                  uuid.UUID           `json:"id"`
	OrderNumber         int64               `json:"order_number"`
	CustomerName        *string             `json:"customer_name,omitempty"`
	CustomerPhone       *string             `json:"customer_phone,omitempty"`
	PaymentMethod       string              `json:"payment_method"`
	PaymentStatus       string              `json:"payment_status"`
	Subtotal            decimal.Decimal     `json:"subtotal"`
	Tax                 decimal.Decimal     `json:"tax"`
	Total               decimal.Decimal     `json:"total"`
	Status              string              `json:"status"`
	DeliveryStatus      *string             `json:"delivery_status,omitempty"`
	TrackingID          *string             `json:"tracking_id,omitempty"`
	Carrier             *string             `json:"carrier,omitempty"`
	EstimatedDeliveryAt *time.Time          `json:"estimated_delivery_at,omitempty"`
	DeliveryNotes       *string             `json:"delivery_notes,omitempty"`
	Items               []orderItemResponse `json:"items,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:                  order.ID,
		OrderNumber:         order.OrderNumber,
		CustomerName:        order.CustomerName,
		CustomerPhone:       order.CustomerPhone,
		PaymentMethod:       string(order.PaymentMethod),
		PaymentStatus:       string(order.PaymentStatus),
		Subtotal:            order.Subtotal,
		Tax:                 order.Tax,
		Total:               order.Total,
		Status:              string(order.Status),
		TrackingID:          order.TrackingID,
		Carrier:             order.Carrier,
		EstimatedDeliveryAt: order.EstimatedDeliveryAt,
		DeliveryNotes:       order.DeliveryNotes,
		CreatedAt:           order.CreatedAt,
	}
	if order.DeliveryStatus != nil {
		status := string(*order.DeliveryStatus)
		resp.DeliveryStatus = &status
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return resp
}

// Checkout converts a session cart into an order. A successful (or replayed)
// checkout consumes the cart.
func Checkout(svc checkoutsvc.Service, store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := store.Load(r.Context(), payload.CartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.Input{
			Cart:          c,
			PaymentMethod: enums.PaymentMethod(payload.PaymentMethod),
			CustomerName:  payload.CustomerName,
			CustomerPhone: payload.CustomerPhone,
			Immediate:     payload.Immediate,
			Actor:         requestActor(r),
		}
		if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" {
			input.IdempotencyKey = &key
		}

		result, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.Delete(r.Context(), payload.CartID); err != nil && logg != nil {
			logg.Error(r.Context(), "failed to drop cart after checkout", err)
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, checkoutResponse{
			Order:    newOrderResponse(result.Order),
			Replayed: result.Replayed,
		})
	}
}
