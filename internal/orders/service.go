package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avilesmedina/tiendita-backend/internal/inventory"
	"github.com/avilesmedina/tiendita-backend/internal/notifications"
	"github.com/avilesmedina/tiendita-backend/pkg/config"
	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
	"github.com/avilesmedina/tiendita-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockLedger is the slice of the inventory service cancellation needs:
// returning sold units inside the caller's transaction.
type stockLedger interface {
	Restock(ctx context.Context, tx *gorm.DB, input inventory.RestockInput) (*models.InventoryRecord, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	stock   stockLedger
	sink    notifications.Sink
	retail  config.RetailConfig
	logg    *logger.Logger
	metrics *metrics.RetailMetrics
}

// NewService builds the order lifecycle service.
func NewService(repo Repository, tx txRunner, stock stockLedger, sink notifications.Sink, retail config.RetailConfig, logg *logger.Logger, m *metrics.RetailMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if sink == nil {
		return nil, fmt.Errorf("notification sink required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, stock: stock, sink: sink, retail: retail, logg: logg, metrics: m}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return Detail(order), nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]OrderDetail, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	out := make([]OrderDetail, 0, len(rows))
	for i := range rows {
		out = append(out, *Detail(&rows[i]))
	}
	return out, nil
}

// Transition moves the order to the target status, applying the side effects
// the transition table mandates. The status change, its history row, and any
// restock ledger entries commit as one transaction.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*OrderDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": input.Target})
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
		}

		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is closed").
				WithDetails(map[string]any{
					"from": order.Status,
					"to":   input.Target,
				})
		}

		if !CanTransition(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed").
				WithDetails(map[string]any{
					"from":    order.Status,
					"to":      input.Target,
					"allowed": AllowedTargets(order.Status),
				})
		}

		updates := map[string]any{
			"status":     input.Target,
			"updated_at": time.Now().UTC(),
		}

		switch input.Target {
		case enums.OrderStatusPacked:
			updates["delivery_status"] = enums.DeliveryStatusAwaitingDispatch

		case enums.OrderStatusShipped:
			updates["delivery_status"] = enums.DeliveryStatusOutForDelivery
			updates["tracking_id"] = newTrackingID()
			updates["carrier"] = s.retail.DefaultCarrier
			updates["estimated_delivery_at"] = addBusinessDays(time.Now().UTC(), s.retail.DeliveryETADays)

		case enums.OrderStatusDelivered:
			updates["delivery_status"] = enums.DeliveryStatusDelivered
			if input.Notes != nil {
				updates["delivery_notes"] = *input.Notes
			}

		case enums.OrderStatusCancelled:
			updates["delivery_status"] = nil
			if err := s.restockLines(ctx, tx, order, input.Actor); err != nil {
				return err
			}
		}

		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order")
		}

		entry := &models.OrderStatusHistory{
			OrderID: order.ID,
			Status:  input.Target,
			Notes:   input.Notes,
			Actor:   actorOrDefault(input.Actor),
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending status history")
		}

		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(input.Target.String())
	s.logg.Info(s.logg.WithOrderID(ctx, updated.ID.String()), "order transitioned")
	s.sink.Notify(ctx, notifications.Event{
		Kind:     "order.transitioned",
		Severity: notifications.SeverityInfo,
		Message:  fmt.Sprintf("order #%d is now %s", updated.OrderNumber, updated.Status),
		OrderID:  &updated.ID,
		Meta:     map[string]any{"to": updated.Status.String()},
	})
	return Detail(updated), nil
}

// restockLines reverses the sale decrement for every line item of a cancelled
// order, one positive ledger entry per line.
func (s *service) restockLines(ctx context.Context, tx *gorm.DB, order *models.Order, actor string) error {
	note := fmt.Sprintf("cancellation of order #%d", order.OrderNumber)
	for _, item := range order.Items {
		_, err := s.stock.Restock(ctx, tx, inventory.RestockInput{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			OrderID:   &order.ID,
			Actor:     actorOrDefault(actor),
			Note:      &note,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RecordDeliveryAttempt logs a failed or recovered delivery attempt while the
// order stays Shipped. A failed attempt never cancels the order; it flips the
// sub-status to Failed Delivery until the next attempt goes out.
func (s *service) RecordDeliveryAttempt(ctx context.Context, input DeliveryAttemptInput) (*OrderDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
		}

		if order.Status != enums.OrderStatusShipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery attempts only apply to shipped orders").
				WithDetails(map[string]any{"status": order.Status})
		}

		target := enums.DeliveryStatusOutForDelivery
		if input.Failed {
			target = enums.DeliveryStatusFailedDelivery
		}

		updates := map[string]any{
			"delivery_status": target,
			"updated_at":      time.Now().UTC(),
		}
		if input.Notes != nil {
			updates["delivery_notes"] = *input.Notes
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order")
		}

		entry := &models.OrderStatusHistory{
			OrderID: order.ID,
			Status:  order.Status,
			Notes:   input.Notes,
			Actor:   actorOrDefault(input.Actor),
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending status history")
		}

		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if input.Failed {
		s.sink.Notify(ctx, notifications.Event{
			Kind:     "order.delivery_failed",
			Severity: notifications.SeverityWarning,
			Message:  fmt.Sprintf("delivery attempt failed for order #%d", updated.OrderNumber),
			OrderID:  &updated.ID,
		})
	}
	return Detail(updated), nil
}

func newTrackingID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TND-" + strings.ToUpper(raw[:10])
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return "system"
	}
	return actor
}
