package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/avilesmedina/tiendita-backend/internal/inventory"
	"github.com/avilesmedina/tiendita-backend/internal/notifications"
	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
)

type lowStockLister interface {
	ListLowStock(ctx context.Context) ([]inventory.LowStockItem, error)
}

type catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// LowStockJob sweeps the stock records and raises one notification per
// product at or below its threshold.
type LowStockJob struct {
	stock    lowStockLister
	products catalog
	sink     notifications.Sink
	logg     *logger.Logger
}

// NewLowStockJob wires the sweep's dependencies.
func NewLowStockJob(stock lowStockLister, productSvc catalog, sink notifications.Sink, logg *logger.Logger) (*LowStockJob, error) {
	if stock == nil {
		return nil, fmt.Errorf("stock lister required")
	}
	if productSvc == nil {
		return nil, fmt.Errorf("products service required")
	}
	if sink == nil {
		return nil, fmt.Errorf("notification sink required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LowStockJob{stock: stock, products: productSvc, sink: sink, logg: logg}, nil
}

func (j *LowStockJob) Name() string { return "low_stock_sweep" }

// Run notifies per low item and keeps going on individual lookup failures,
// reporting them all at the end.
func (j *LowStockJob) Run(ctx context.Context) error {
	items, err := j.stock.ListLowStock(ctx)
	if err != nil {
		return fmt.Errorf("listing low stock: %w", err)
	}

	var errs error
	for _, item := range items {
		product, err := j.products.GetByID(ctx, item.ProductID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", item.ProductID, err))
			continue
		}

		j.sink.Notify(ctx, notifications.Event{
			Kind:     "inventory.low_stock",
			Severity: notifications.SeverityWarning,
			Message:  fmt.Sprintf("%s is low on stock (%d left, threshold %d)", product.Name, item.Quantity, item.Threshold),
			Meta: map[string]any{
				"product_id": item.ProductID.String(),
				"sku":        product.SKU,
				"quantity":   item.Quantity,
				"threshold":  item.Threshold,
			},
		})
	}

	j.logg.Info(j.logg.WithField(ctx, "low_stock_count", len(items)), "low stock sweep finished")
	return errs
}
