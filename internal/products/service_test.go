package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:products_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, conn
}

func TestCreateRejectsDuplicateSKU(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := CreateInput{
		SKU:    "COLA-600",
		Name:   "Cola 600ml",
		Price:  decimal.RequireFromString("1.50"),
		Status: enums.ProductStatusActive,
	}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Create(ctx, input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for duplicate sku, got %v", err)
	}
}

func TestCreateDefaultsToDraft(t *testing.T) {
	svc, _ := newTestService(t)

	product, err := svc.Create(context.Background(), CreateInput{
		SKU:   "PAN-01",
		Name:  "Pan dulce",
		Price: decimal.RequireFromString("0.75"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if product.Status != enums.ProductStatusDraft {
		t.Fatalf("expected draft status, got %s", product.Status)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListFiltersByStatusAndSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seed := []CreateInput{
		{SKU: "COLA-600", Name: "Cola 600ml", Price: decimal.RequireFromString("1.50"), Status: enums.ProductStatusActive},
		{SKU: "AGUA-1L", Name: "Agua 1L", Price: decimal.RequireFromString("1.00"), Status: enums.ProductStatusActive},
		{SKU: "VIEJO-01", Name: "Descontinuado", Price: decimal.RequireFromString("2.00"), Status: enums.ProductStatusInactive},
	}
	for _, input := range seed {
		if _, err := svc.Create(ctx, input); err != nil {
			t.Fatalf("create %s: %v", input.SKU, err)
		}
	}

	active := enums.ProductStatusActive
	out, err := svc.List(ctx, ListFilters{Status: &active})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 active products, got %d", len(out))
	}

	out, err = svc.List(ctx, ListFilters{Search: "Cola"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].SKU != "COLA-600" {
		t.Fatalf("unexpected search result: %+v", out)
	}
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateInput{
		SKU:    "LECHE-1L",
		Name:   "Leche entera",
		Price:  decimal.RequireFromString("1.20"),
		Status: enums.ProductStatusActive,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newPrice := decimal.RequireFromString("1.35")
	updated, err := svc.Update(ctx, product.ID, UpdateInput{Price: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Fatalf("expected price %s, got %s", newPrice, updated.Price)
	}
	if updated.Name != "Leche entera" {
		t.Fatalf("name should be unchanged, got %q", updated.Name)
	}
}
