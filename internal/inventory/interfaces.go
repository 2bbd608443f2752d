package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
)

// Repository defines persistence operations for stock records and the ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRecord(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (*models.InventoryRecord, error)
	CreateRecord(ctx context.Context, record *models.InventoryRecord) error
	ApplyDelta(ctx context.Context, recordID uuid.UUID, delta int, expectedVersion int64, restockedAt *time.Time) (bool, error)
	SumQuantityByProduct(ctx context.Context, productID uuid.UUID) (int, error)
	AppendTransaction(ctx context.Context, txn *models.InventoryTransaction) error
	SumDeltas(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (int64, error)
	ListTransactionsByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryTransaction, error)
	ListRecords(ctx context.Context) ([]models.InventoryRecord, error)
	ListLowStock(ctx context.Context, defaultThreshold int) ([]models.InventoryRecord, error)
}

// Service exposes ledger-backed stock operations. Every mutation appends a
// transaction row in the same database transaction that moves the quantity.
type Service interface {
	Quantity(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (int, error)
	IsLowStock(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (bool, error)
	Available(ctx context.Context, productID uuid.UUID) (int, error)
	Decrement(ctx context.Context, tx *gorm.DB, input DecrementInput) error
	Restock(ctx context.Context, tx *gorm.DB, input RestockInput) (*models.InventoryRecord, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.InventoryRecord, error)
	ListLowStock(ctx context.Context) ([]LowStockItem, error)
	Snapshot(ctx context.Context) ([]SnapshotRow, error)
	VerifyLedger(ctx context.Context) ([]Discrepancy, error)
	History(ctx context.Context, productID uuid.UUID) ([]models.InventoryTransaction, error)
}
