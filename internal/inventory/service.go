package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/avilesmedina/tiendita-backend/pkg/config"
	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
	"github.com/avilesmedina/tiendita-backend/pkg/metrics"
)

const defaultActor = "system"

// casRetries bounds how often a decrement re-reads after losing the version
// race before giving up.
const casRetries = 1

// defaultDecrementBackoff guards against a zero-valued config; the retry
// clock requires a positive interval.
const defaultDecrementBackoff = 25 * time.Millisecond

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    Repository
	tx      txRunner
	retail  config.RetailConfig
	logg    *logger.Logger
	metrics *metrics.RetailMetrics
}

// NewService builds the ledger service with the required dependencies.
func NewService(repo Repository, tx txRunner, retail config.RetailConfig, logg *logger.Logger, m *metrics.RetailMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if retail.DecrementRetryBackoff <= 0 {
		retail.DecrementRetryBackoff = defaultDecrementBackoff
	}
	return &service{repo: repo, tx: tx, retail: retail, logg: logg, metrics: m}, nil
}

func (s *service) Quantity(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (int, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	record, err := s.repo.FindRecord(ctx, productID, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "no stock record for product")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading stock record")
	}
	return record.Quantity, nil
}

// IsLowStock reports whether a stock record sits at or below its threshold.
// A product with no record counts as low stock.
func (s *service) IsLowStock(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (bool, error) {
	if productID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	record, err := s.repo.FindRecord(ctx, productID, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading stock record")
	}
	return record.Quantity <= s.thresholdFor(*record), nil
}

// Available sums on-hand quantity across every location for the product.
// A product with no records reads as zero, not as an error.
func (s *service) Available(ctx context.Context, productID uuid.UUID) (int, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	total, err := s.repo.SumQuantityByProduct(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing stock")
	}
	return total, nil
}

// Decrement consumes qty units for a sale. When tx is non-nil the caller owns
// the surrounding transaction (checkout does this so the order and all its
// stock movements commit or roll back together); otherwise the service opens
// its own.
func (s *service) Decrement(ctx context.Context, tx *gorm.DB, input DecrementInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}

	if tx != nil {
		return s.decrement(ctx, s.repo.WithTx(tx), input)
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.decrement(ctx, s.repo.WithTx(tx), input)
	})
}

func (s *service) decrement(ctx context.Context, repo Repository, input DecrementInput) error {
	backoff := retry.WithMaxRetries(casRetries, retry.NewConstant(s.retail.DecrementRetryBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		record, err := repo.FindRecord(ctx, input.ProductID, input.LocationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return s.denyStock(ctx, input, 0)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading stock record")
		}

		if record.Quantity < input.Qty {
			return s.denyStock(ctx, input, record.Quantity)
		}

		ok, err := repo.ApplyDelta(ctx, record.ID, -input.Qty, record.Version, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrementing stock")
		}
		if !ok {
			// Version moved under us. Re-read and try again.
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeConflict, "concurrent stock update"))
		}

		txn := &models.InventoryTransaction{
			ProductID:  input.ProductID,
			LocationID: input.LocationID,
			Delta:      -input.Qty,
			Type:       enums.InventoryTransactionTypeSale,
			OrderID:    input.OrderID,
			Actor:      actorOrDefault(input.Actor),
		}
		if err := repo.AppendTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending ledger entry")
		}
		return nil
	})
	if err != nil {
		// Retry budget spent on the version column. Re-read once more and
		// report the availability the caller actually lost to.
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			available := 0
			if record, rerr := repo.FindRecord(ctx, input.ProductID, input.LocationID); rerr == nil {
				available = record.Quantity
			}
			return s.denyStock(ctx, input, available)
		}
		return err
	}

	s.logg.Debug(s.logg.WithProductID(ctx, input.ProductID.String()), "stock decremented")
	return nil
}

func (s *service) denyStock(ctx context.Context, input DecrementInput, available int) error {
	s.metrics.IncStockDenied()
	s.logg.Warn(s.logg.WithProductID(ctx, input.ProductID.String()), "insufficient stock")
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"product_id": input.ProductID,
			"requested":  input.Qty,
			"available":  available,
		})
}

// Restock adds qty units, creating the record on first receipt. Like
// Decrement, a non-nil tx joins the caller's transaction.
func (s *service) Restock(ctx context.Context, tx *gorm.DB, input RestockInput) (*models.InventoryRecord, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}

	if tx != nil {
		record, err := s.restock(ctx, s.repo.WithTx(tx), input)
		if err != nil {
			return nil, err
		}
		s.logg.Info(s.logg.WithProductID(ctx, input.ProductID.String()), "stock restocked")
		return record, nil
	}

	var out *models.InventoryRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.restock(ctx, s.repo.WithTx(tx), input)
		if err != nil {
			return err
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithProductID(ctx, input.ProductID.String()), "stock restocked")
	return out, nil
}

func (s *service) restock(ctx context.Context, repo Repository, input RestockInput) (*models.InventoryRecord, error) {
	now := time.Now().UTC()

	record, err := repo.FindRecord(ctx, input.ProductID, input.LocationID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading stock record")
		}
		record = &models.InventoryRecord{
			ProductID:       input.ProductID,
			LocationID:      input.LocationID,
			Quantity:        0,
			LastRestockedAt: &now,
		}
		if err := repo.CreateRecord(ctx, record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating stock record")
		}
	}

	ok, err := repo.ApplyDelta(ctx, record.ID, input.Qty, record.Version, &now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restocking")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "concurrent stock update")
	}

	txn := &models.InventoryTransaction{
		ProductID:  input.ProductID,
		LocationID: input.LocationID,
		Delta:      input.Qty,
		Type:       enums.InventoryTransactionTypeRestock,
		OrderID:    input.OrderID,
		Actor:      actorOrDefault(input.Actor),
		Note:       input.Note,
	}
	if err := repo.AppendTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending ledger entry")
	}

	record, err = repo.FindRecord(ctx, input.ProductID, input.LocationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading stock record")
	}
	return record, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.InventoryRecord, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	if input.Note == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment note required")
	}

	var out *models.InventoryRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindRecord(ctx, input.ProductID, input.LocationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no stock record for product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading stock record")
		}

		if record.Quantity+input.Delta < 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "adjustment would drive stock negative").
				WithDetails(map[string]any{
					"product_id": input.ProductID,
					"available":  record.Quantity,
				})
		}

		ok, err := repo.ApplyDelta(ctx, record.ID, input.Delta, record.Version, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjusting stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "concurrent stock update")
		}

		note := input.Note
		txn := &models.InventoryTransaction{
			ProductID:  input.ProductID,
			LocationID: input.LocationID,
			Delta:      input.Delta,
			Type:       enums.InventoryTransactionTypeAdjustment,
			Actor:      actorOrDefault(input.Actor),
			Note:       &note,
		}
		if err := repo.AppendTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending ledger entry")
		}

		record, err = repo.FindRecord(ctx, input.ProductID, input.LocationID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading stock record")
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithProductID(ctx, input.ProductID.String()), "stock adjusted")
	return out, nil
}

func (s *service) ListLowStock(ctx context.Context) ([]LowStockItem, error) {
	records, err := s.repo.ListLowStock(ctx, s.retail.LowStockThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing low stock")
	}

	items := make([]LowStockItem, 0, len(records))
	for _, record := range records {
		items = append(items, LowStockItem{
			ProductID:  record.ProductID,
			LocationID: record.LocationID,
			Quantity:   record.Quantity,
			Threshold:  s.thresholdFor(record),
		})
	}
	s.metrics.SetLowStockRecords(len(items))
	return items, nil
}

func (s *service) Snapshot(ctx context.Context) ([]SnapshotRow, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stock records")
	}

	rows := make([]SnapshotRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, SnapshotRow{
			ProductID:       record.ProductID,
			LocationID:      record.LocationID,
			Quantity:        record.Quantity,
			LowStock:        record.Quantity <= s.thresholdFor(record),
			LastRestockedAt: record.LastRestockedAt,
		})
	}
	return rows, nil
}

// VerifyLedger cross-checks every record's cached quantity against the sum of
// its ledger deltas. A non-empty result means a bug or manual DB edit.
func (s *service) VerifyLedger(ctx context.Context) ([]Discrepancy, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stock records")
	}

	var out []Discrepancy
	for _, record := range records {
		sum, err := s.repo.SumDeltas(ctx, record.ProductID, record.LocationID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing ledger deltas")
		}
		if int64(record.Quantity) != sum {
			out = append(out, Discrepancy{
				ProductID:  record.ProductID,
				LocationID: record.LocationID,
				Recorded:   record.Quantity,
				LedgerSum:  sum,
			})
		}
	}
	return out, nil
}

func (s *service) History(ctx context.Context, productID uuid.UUID) ([]models.InventoryTransaction, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	txns, err := s.repo.ListTransactionsByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing ledger entries")
	}
	return txns, nil
}

func (s *service) thresholdFor(record models.InventoryRecord) int {
	if record.LowStockThreshold != nil {
		return *record.LowStockThreshold
	}
	return s.retail.LowStockThreshold
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return defaultActor
	}
	return actor
}
