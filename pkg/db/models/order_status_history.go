package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avilesmedina/tiendita-backend/pkg/enums"
)

// OrderStatusHistory is the append-only audit trail of order transitions,
// one row per transition.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;not null"`
	Notes     *string           `gorm:"column:notes"`
	Actor     string            `gorm:"column:actor;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
