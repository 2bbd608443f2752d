package orders

import (
	"github.com/google/uuid"

	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
)

// TransitionInput carries a requested status move.
type TransitionInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	Notes   *string
	Actor   string
}

// DeliveryAttemptInput records the outcome of one delivery attempt while the
// order stays Shipped.
type DeliveryAttemptInput struct {
	OrderID uuid.UUID
	Failed  bool
	Notes   *string
	Actor   string
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Limit         int
	Offset        int
}

// OrderDetail pairs the persisted order with its derived projection.
type OrderDetail struct {
	models.Order
	NextAction     string              `json:"next_action"`
	AllowedTargets []enums.OrderStatus `json:"allowed_targets"`
}

// Detail wraps an order with its computed fields.
func Detail(order *models.Order) *OrderDetail {
	return &OrderDetail{
		Order:          *order,
		NextAction:     NextAction(order.Status, order.DeliveryStatus),
		AllowedTargets: AllowedTargets(order.Status),
	}
}
