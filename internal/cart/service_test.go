package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avilesmedina/tiendita-backend/pkg/config"
	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
)

type fakeProducts struct {
	byID map[uuid.UUID]*models.Product
}

func (f *fakeProducts) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

type fakeStock struct {
	available map[uuid.UUID]int
}

func (f *fakeStock) Available(_ context.Context, productID uuid.UUID) (int, error) {
	return f.available[productID], nil
}

func newCartFixture(t *testing.T) (Service, *fakeProducts, *fakeStock) {
	t.Helper()

	products := &fakeProducts{byID: map[uuid.UUID]*models.Product{}}
	stock := &fakeStock{available: map[uuid.UUID]int{}}
	retail := config.RetailConfig{TaxRatePercent: 5}

	svc, err := NewService(products, stock, retail)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, products, stock
}

func seedProduct(products *fakeProducts, stock *fakeStock, price string, available int) uuid.UUID {
	id := uuid.New()
	products.byID[id] = &models.Product{
		ID:     id,
		SKU:    "SKU-" + id.String()[:8],
		Name:   "Producto",
		Price:  decimal.RequireFromString(price),
		Status: enums.ProductStatusActive,
	}
	stock.available[id] = available
	return id
}

func TestAddMergesLinesAndSnapshotsPrice(t *testing.T) {
	svc, products, stock := newCartFixture(t)
	ctx := context.Background()
	c := New()

	id := seedProduct(products, stock, "12.50", 10)

	if err := svc.Add(ctx, c, id, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Add(ctx, c, id, 3); err != nil {
		t.Fatalf("add again: %v", err)
	}

	if got := c.Qty(id); got != 5 {
		t.Fatalf("expected merged qty 5, got %d", got)
	}
	if len(c.Lines()) != 1 {
		t.Fatalf("expected a single line, got %d", len(c.Lines()))
	}

	// Price changes in the catalog must not reprice carted lines.
	products.byID[id].Price = decimal.RequireFromString("99.99")
	if !c.Lines()[0].UnitPrice.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected snapshotted unit price, got %s", c.Lines()[0].UnitPrice)
	}
}

func TestAddRefusesOutOfStock(t *testing.T) {
	svc, products, stock := newCartFixture(t)
	ctx := context.Background()
	c := New()

	id := seedProduct(products, stock, "3.00", 0)

	err := svc.Add(ctx, c, id, 1)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected out-of-stock error, got %v", err)
	}
	if !c.IsEmpty() {
		t.Fatalf("cart should remain empty")
	}
}

func TestAddRefusesBeyondAvailableWithDetail(t *testing.T) {
	svc, products, stock := newCartFixture(t)
	ctx := context.Background()
	c := New()

	id := seedProduct(products, stock, "3.00", 4)

	if err := svc.Add(ctx, c, id, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := svc.Add(ctx, c, id, 2)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStockLimit) {
		t.Fatalf("expected stock limit error, got %v", err)
	}

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", pkgerrors.As(err).Details())
	}
	if details["available"] != 4 {
		t.Fatalf("expected available 4 in details, got %v", details["available"])
	}

	if got := c.Qty(id); got != 3 {
		t.Fatalf("cart qty should be unchanged, got %d", got)
	}
}

func TestAddRefusesInactiveProduct(t *testing.T) {
	svc, products, stock := newCartFixture(t)
	ctx := context.Background()
	c := New()

	id := seedProduct(products, stock, "3.00", 10)
	products.byID[id].Status = enums.ProductStatusInactive

	err := svc.Add(ctx, c, id, 1)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetQuantityClampsAndRemoves(t *testing.T) {
	svc, products, stock := newCartFixture(t)
	ctx := context.Background()
	c := New()

	id := seedProduct(products, stock, "2.00", 6)
	if err := svc.Add(ctx, c, id, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	result, err := svc.SetQuantity(ctx, c, id, 10)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if !result.Clamped || result.Qty != 6 {
		t.Fatalf("expected clamp to 6, got %+v", result)
	}
	if got := c.Qty(id); got != 6 {
		t.Fatalf("expected cart qty 6, got %d", got)
	}

	result, err = svc.SetQuantity(ctx, c, id, 0)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if !result.Removed {
		t.Fatalf("expected removal, got %+v", result)
	}
	if !c.IsEmpty() {
		t.Fatalf("expected empty cart")
	}

	if _, err := svc.SetQuantity(ctx, c, id, 1); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for missing line, got %v", err)
	}
}

func TestQuoteAppliesTaxToGroupedTotal(t *testing.T) {
	svc, products, stock := newCartFixture(t)
	ctx := context.Background()
	c := New()

	first := seedProduct(products, stock, "15.00", 10)
	second := seedProduct(products, stock, "5.00", 10)

	if err := svc.Add(ctx, c, first, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Add(ctx, c, second, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	totals := svc.Quote(c)
	if totals.ItemCount != 4 {
		t.Fatalf("expected 4 units, got %d", totals.ItemCount)
	}
	if !totals.Subtotal.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("expected subtotal 40.00, got %s", totals.Subtotal)
	}
	if !totals.Tax.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("expected tax 2.00, got %s", totals.Tax)
	}
	if !totals.Total.Equal(decimal.RequireFromString("42.00")) {
		t.Fatalf("expected total 42.00, got %s", totals.Total)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	svc, products, stock := newCartFixture(t)
	ctx := context.Background()
	c := New()

	id := seedProduct(products, stock, "1.00", 5)
	if err := svc.Add(ctx, c, id, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	c.Clear()
	if !c.IsEmpty() {
		t.Fatalf("expected empty cart")
	}

	totals := svc.Quote(c)
	if !totals.Total.Equal(decimal.Zero) {
		t.Fatalf("expected zero total, got %s", totals.Total)
	}
}
