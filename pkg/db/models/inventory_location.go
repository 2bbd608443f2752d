package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryLocation is an optional stocking dimension. Deployments with a
// single implicit location never create rows here; inventory records then
// carry a nil location id.
type InventoryLocation struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Address   *string   `gorm:"column:address"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
