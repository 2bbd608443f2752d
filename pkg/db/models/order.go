package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avilesmedina/tiendita-backend/pkg/enums"
)

// Order represents a placed sale. Orders are created atomically with their
// line items, mutated only through the state machine, and never hard-deleted:
// cancellation is a status, not a removal.
type Order struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber         int64                 `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerName        *string               `gorm:"column:customer_name"`
	CustomerPhone       *string               `gorm:"column:customer_phone"`
	PaymentMethod       enums.PaymentMethod   `gorm:"column:payment_method;not null"`
	PaymentStatus       enums.PaymentStatus   `gorm:"column:payment_status;not null;default:'pending'"`
	Subtotal            decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax                 decimal.Decimal       `gorm:"column:tax;type:numeric(12,2);not null"`
	Total               decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	Status              enums.OrderStatus     `gorm:"column:status;not null;default:'pending'"`
	DeliveryStatus      *enums.DeliveryStatus `gorm:"column:delivery_status"`
	TrackingID          *string               `gorm:"column:tracking_id"`
	Carrier             *string               `gorm:"column:carrier"`
	EstimatedDeliveryAt *time.Time            `gorm:"column:estimated_delivery_at"`
	DeliveryNotes       *string               `gorm:"column:delivery_notes"`
	IdempotencyKey      *string               `gorm:"column:idempotency_key;uniqueIndex"`
	Items               []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory       []OrderStatusHistory  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
