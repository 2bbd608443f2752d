package inventory

import (
	"time"

	"github.com/google/uuid"
)

// DecrementInput removes stock for a sale. OrderID links the ledger entry to
// the order that consumed the units.
type DecrementInput struct {
	ProductID  uuid.UUID
	LocationID *uuid.UUID
	Qty        int
	OrderID    *uuid.UUID
	Actor      string
}

// RestockInput adds received stock. The record is created on first restock of
// a (product, location) pair. OrderID is set when the restock reverses a
// cancelled order's sale.
type RestockInput struct {
	ProductID  uuid.UUID
	LocationID *uuid.UUID
	Qty        int
	OrderID    *uuid.UUID
	Actor      string
	Note       *string
}

// AdjustInput applies a manual correction. Delta may be negative but the
// resulting quantity must stay non-negative, and a note is mandatory.
type AdjustInput struct {
	ProductID  uuid.UUID
	LocationID *uuid.UUID
	Delta      int
	Actor      string
	Note       string
}

// LowStockItem is one record at or below its threshold.
type LowStockItem struct {
	ProductID  uuid.UUID  `json:"product_id"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
	Quantity   int        `json:"quantity"`
	Threshold  int        `json:"threshold"`
}

// SnapshotRow summarizes one stock record for reporting.
type SnapshotRow struct {
	ProductID       uuid.UUID  `json:"product_id"`
	LocationID      *uuid.UUID `json:"location_id,omitempty"`
	Quantity        int        `json:"quantity"`
	LowStock        bool       `json:"low_stock"`
	LastRestockedAt *time.Time `json:"last_restocked_at,omitempty"`
}

// Discrepancy reports a record whose cached quantity disagrees with the sum
// of its ledger deltas.
type Discrepancy struct {
	ProductID  uuid.UUID  `json:"product_id"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
	Recorded   int        `json:"recorded"`
	LedgerSum  int64      `json:"ledger_sum"`
}
