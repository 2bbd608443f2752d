package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func scopeLocation(q *gorm.DB, locationID *uuid.UUID) *gorm.DB {
	if locationID == nil {
		return q.Where("location_id IS NULL")
	}
	return q.Where("location_id = ?", *locationID)
}

func (r *repository) FindRecord(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if err := scopeLocation(q, locationID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) CreateRecord(ctx context.Context, record *models.InventoryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// ApplyDelta moves quantity by delta when the version still matches and the
// result stays non-negative. Returns false when no row qualified, which means
// either a concurrent writer bumped the version or the guard would be violated.
func (r *repository) ApplyDelta(ctx context.Context, recordID uuid.UUID, delta int, expectedVersion int64, restockedAt *time.Time) (bool, error) {
	updates := map[string]any{
		"quantity":   gorm.Expr("quantity + ?", delta),
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now().UTC(),
	}
	if restockedAt != nil {
		updates["last_restocked_at"] = *restockedAt
	}

	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ? AND version = ? AND quantity + ? >= 0", recordID, expectedVersion, delta).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SumQuantityByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Select("SUM(quantity)").
		Where("product_id = ?", productID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) SumDeltas(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (int64, error) {
	var total *int64
	q := r.db.WithContext(ctx).
		Model(&models.InventoryTransaction{}).
		Select("SUM(delta)").
		Where("product_id = ?", productID)
	if err := scopeLocation(q, locationID).Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repository) ListTransactionsByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryTransaction, error) {
	var txns []models.InventoryTransaction
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListRecords(ctx context.Context) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := r.db.WithContext(ctx).
		Order("product_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListLowStock(ctx context.Context, defaultThreshold int) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("quantity <= COALESCE(low_stock_threshold, ?)", defaultThreshold).
		Order("quantity ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
