package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/avilesmedina/tiendita-backend/internal/inventory"
	"github.com/avilesmedina/tiendita-backend/internal/notifications"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
)

const defaultLedgerAuditInterval = time.Hour

type ledgerVerifier interface {
	VerifyLedger(ctx context.Context) ([]inventory.Discrepancy, error)
}

// LedgerAuditJob cross-checks cached stock quantities against the ledger.
// A discrepancy is a data bug; the job fails loudly so it lands in the
// worker's error metrics, and raises an error notification per record.
//
// The audit is heavier than the sweep it shares a ticker with, so it runs
// at most once per interval and skips the ticks in between.
type LedgerAuditJob struct {
	stock    ledgerVerifier
	sink     notifications.Sink
	logg     *logger.Logger
	interval time.Duration
	lastRun  time.Time
}

// NewLedgerAuditJob wires the audit's dependencies.
func NewLedgerAuditJob(stock ledgerVerifier, sink notifications.Sink, logg *logger.Logger, interval time.Duration) (*LedgerAuditJob, error) {
	if stock == nil {
		return nil, fmt.Errorf("ledger verifier required")
	}
	if sink == nil {
		return nil, fmt.Errorf("notification sink required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if interval <= 0 {
		interval = defaultLedgerAuditInterval
	}
	return &LedgerAuditJob{stock: stock, sink: sink, logg: logg, interval: interval}, nil
}

func (j *LedgerAuditJob) Name() string { return "ledger_audit" }

func (j *LedgerAuditJob) Run(ctx context.Context) error {
	if !j.lastRun.IsZero() && time.Since(j.lastRun) < j.interval {
		j.logg.Debug(ctx, "ledger audit not due yet, skipping")
		return nil
	}
	j.lastRun = time.Now()

	discrepancies, err := j.stock.VerifyLedger(ctx)
	if err != nil {
		return fmt.Errorf("verifying ledger: %w", err)
	}

	if len(discrepancies) == 0 {
		j.logg.Info(ctx, "ledger audit clean")
		return nil
	}

	for _, d := range discrepancies {
		j.sink.Notify(ctx, notifications.Event{
			Kind:     "inventory.ledger_drift",
			Severity: notifications.SeverityError,
			Message:  fmt.Sprintf("stock record disagrees with ledger for product %s", d.ProductID),
			Meta: map[string]any{
				"product_id": d.ProductID.String(),
				"recorded":   d.Recorded,
				"ledger_sum": d.LedgerSum,
			},
		})
	}
	return fmt.Errorf("ledger drift detected on %d record(s)", len(discrepancies))
}
