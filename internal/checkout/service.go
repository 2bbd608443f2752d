package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avilesmedina/tiendita-backend/internal/cart"
	"github.com/avilesmedina/tiendita-backend/internal/inventory"
	"github.com/avilesmedina/tiendita-backend/internal/notifications"
	"github.com/avilesmedina/tiendita-backend/internal/orders"
	"github.com/avilesmedina/tiendita-backend/pkg/config"
	"github.com/avilesmedina/tiendita-backend/pkg/db"
	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
	"github.com/avilesmedina/tiendita-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockLedger is the slice of the inventory service checkout needs: advisory
// availability reads and transactional decrements.
type stockLedger interface {
	Available(ctx context.Context, productID uuid.UUID) (int, error)
	Decrement(ctx context.Context, tx *gorm.DB, input inventory.DecrementInput) error
}

// Input is one checkout request. Immediate marks a point-of-sale sale that
// lands directly in Delivered/paid instead of Pending.
type Input struct {
	Cart           *cart.Cart
	PaymentMethod  enums.PaymentMethod
	CustomerName   *string
	CustomerPhone  *string
	IdempotencyKey *string
	Immediate      bool
	Actor          string
}

// Result carries the produced order. Replayed is set when the idempotency key
// matched a previous checkout and no new effects happened.
type Result struct {
	Order    *models.Order `json:"order"`
	Replayed bool          `json:"replayed"`
}

// Service turns a finalized cart into an order, its line items, and the
// matching stock movements, atomically.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	ordersRepo orders.Repository
	tx         txRunner
	stock      stockLedger
	sink       notifications.Sink
	retail     config.RetailConfig
	logg       *logger.Logger
	metrics    *metrics.RetailMetrics
}

// NewService builds the checkout orchestrator.
func NewService(ordersRepo orders.Repository, tx txRunner, stock stockLedger, sink notifications.Sink, retail config.RetailConfig, logg *logger.Logger, m *metrics.RetailMetrics) (Service, error) {
	if ordersRepo == nil {
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
	return &service{ordersRepo: ordersRepo, tx: tx, stock: stock, sink: sink, retail: retail, logg: logg, metrics: m}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	if input.Cart == nil || input.Cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"payment_method": input.PaymentMethod})
	}

	// A replayed token returns the original order with no new side effects.
	if input.IdempotencyKey != nil {
		if existing, err := s.findByKey(ctx, *input.IdempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			return &Result{Order: existing, Replayed: true}, nil
		}
	}

	// Advisory pre-check so the caller learns about every offending line at
	// once. The guarded decrement inside the transaction is the authority.
	if err := s.validateStock(ctx, input.Cart); err != nil {
		s.metrics.IncCheckout("rejected")
		return nil, err
	}

	order, err := s.runCheckout(ctx, input)
	if err != nil {
		// A concurrent replay of the same token loses the unique-index race;
		// hand back the winner's order instead of an error.
		if input.IdempotencyKey != nil && db.IsUniqueViolation(err, "idempotency_key") {
			if existing, ferr := s.findByKey(ctx, *input.IdempotencyKey); ferr == nil && existing != nil {
				return &Result{Order: existing, Replayed: true}, nil
			}
		}
		s.metrics.IncCheckout("failed")
		s.notifyFailure(ctx, err)
		return nil, err
	}

	s.metrics.IncCheckout("success")
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "checkout completed")
	s.sink.Notify(ctx, notifications.Event{
		Kind:     "checkout.completed",
		Severity: notifications.SeverityInfo,
		Message:  fmt.Sprintf("order #%d created", order.OrderNumber),
		OrderID:  &order.ID,
		Meta:     map[string]any{"total": order.Total.String()},
	})
	return &Result{Order: order}, nil
}

func (s *service) findByKey(ctx context.Context, key string) (*models.Order, error) {
	order, err := s.ordersRepo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up idempotency key")
	}
	return order, nil
}

func (s *service) validateStock(ctx context.Context, c *cart.Cart) error {
	var offending []map[string]any
	for _, line := range c.Lines() {
		available, err := s.stock.Available(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if line.Qty > available {
			offending = append(offending, map[string]any{
				"product_id": line.ProductID,
				"name":       line.Name,
				"requested":  line.Qty,
				"available":  available,
			})
		}
	}
	if len(offending) > 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for one or more items").
			WithDetails(map[string]any{"items": offending})
	}
	return nil
}

// runCheckout creates the order, its line items, the per-line stock
// decrements, and the initial history row in a single transaction. Any
// failure rolls the whole attempt back; no order without decrements, no
// decrement without an order.
func (s *service) runCheckout(ctx context.Context, input Input) (*models.Order, error) {
	totals := priceCart(input.Cart, s.retail)

	var out *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocating order number")
		}

		status := enums.OrderStatusPending
		paymentStatus := enums.PaymentStatusPending
		if input.Immediate {
			status = enums.OrderStatusDelivered
			paymentStatus = enums.PaymentStatusPaid
		}

		order := &models.Order{
			OrderNumber:    number,
			CustomerName:   input.CustomerName,
			CustomerPhone:  input.CustomerPhone,
			PaymentMethod:  input.PaymentMethod,
			PaymentStatus:  paymentStatus,
			Subtotal:       totals.Subtotal,
			Tax:            totals.Tax,
			Total:          totals.Total,
			Status:         status,
			IdempotencyKey: input.IdempotencyKey,
		}
		if err := repo.Create(ctx, order); err != nil {
			return err
		}

		items := make([]models.OrderLineItem, 0, len(totals.Lines))
		for _, line := range totals.Lines {
			items = append(items, models.OrderLineItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Name:      line.Name,
				Qty:       line.Qty,
				UnitPrice: line.UnitPrice,
				LineTotal: line.LineTotal(),
			})
		}
		if err := repo.CreateLineItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating line items")
		}

		for _, line := range totals.Lines {
			err := s.stock.Decrement(ctx, tx, inventory.DecrementInput{
				ProductID: line.ProductID,
				Qty:       line.Qty,
				OrderID:   &order.ID,
				Actor:     input.Actor,
			})
			if err != nil {
				return err
			}
		}

		entry := &models.OrderStatusHistory{
			OrderID: order.ID,
			Status:  status,
			Actor:   actorOrDefault(input.Actor),
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending status history")
		}

		out, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) notifyFailure(ctx context.Context, err error) {
	s.sink.Notify(ctx, notifications.Event{
		Kind:     "checkout.failed",
		Severity: notifications.SeverityError,
		Message:  "checkout failed",
		Meta:     map[string]any{"error": err.Error()},
	})
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return "system"
	}
	return actor
}

// cartTotals mirrors the aggregator's quote so a checkout prices the cart the
// same way the shopper saw it.
type cartTotals struct {
	Lines    []cart.Line
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

func priceCart(c *cart.Cart, retail config.RetailConfig) cartTotals {
	subtotal := c.Subtotal()
	tax := subtotal.Mul(retail.TaxRate()).Round(2)
	return cartTotals{
		Lines:    c.Lines(),
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
