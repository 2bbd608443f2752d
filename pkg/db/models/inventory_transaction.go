package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avilesmedina/tiendita-backend/pkg/enums"
)

// InventoryTransaction is an append-only ledger entry recording one stock
// movement. Rows are never updated or deleted; current stock is always
// reconstructible as the sum of deltas per (product, location).
type InventoryTransaction struct {
	ID         uuid.UUID                      `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID                      `gorm:"column:product_id;type:uuid;not null;index"`
	LocationID *uuid.UUID                     `gorm:"column:location_id;type:uuid"`
	Delta      int                            `gorm:"column:delta;not null"`
	Type       enums.InventoryTransactionType `gorm:"column:type;not null"`
	OrderID    *uuid.UUID                     `gorm:"column:order_id;type:uuid;index"`
	Actor      string                         `gorm:"column:actor;not null"`
	Note       *string                        `gorm:"column:note"`
	CreatedAt  time.Time                      `gorm:"column:created_at;autoCreateTime"`
}
