package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord tracks the current on-hand quantity per (product, location).
// Quantity is never written directly: every mutation goes through the ledger
// service, which bumps Version as its optimistic concurrency check. The row
// invariant is Quantity == sum of InventoryTransaction deltas for the key.
type InventoryRecord struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_inventory_product_location"`
	LocationID        *uuid.UUID `gorm:"column:location_id;type:uuid;uniqueIndex:idx_inventory_product_location"`
	Quantity          int        `gorm:"column:quantity;not null;default:0"`
	LowStockThreshold *int       `gorm:"column:low_stock_threshold"`
	Version           int64      `gorm:"column:version;not null;default:0"`
	LastRestockedAt   *time.Time `gorm:"column:last_restocked_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
