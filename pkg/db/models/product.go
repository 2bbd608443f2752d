package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/avilesmedina/tiendita-backend/pkg/enums"
)

// Product represents a catalog listing. Stock for a product is never stored
// here; it lives in InventoryRecord and moves only through ledger entries.
type Product struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SKU       string              `gorm:"column:sku;not null;uniqueIndex"`
	Name      string              `gorm:"column:name;not null"`
	Price     decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Category  string              `gorm:"column:category;not null"`
	Tags      pq.StringArray      `gorm:"column:tags;type:text[]"`
	Status    enums.ProductStatus `gorm:"column:status;not null;default:'draft'"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
