package inventory

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/avilesmedina/tiendita-backend/pkg/config"
	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:inv_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = conn.AutoMigrate(
		&models.Product{},
		&models.InventoryLocation{},
		&models.InventoryRecord{},
		&models.InventoryTransaction{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func mustCreateTestProduct(t *testing.T, conn *gorm.DB) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:     uuid.New(),
		SKU:    fmt.Sprintf("SKU-%s", uuid.NewString()),
		Name:   "Cola 600ml",
		Price:  decimal.NewFromFloat(1.50),
		Status: enums.ProductStatusActive,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "inventory-test", Output: io.Discard})
	retail := config.RetailConfig{
		LowStockThreshold:     5,
		DecrementRetryBackoff: 0,
	}
	svc, err := NewService(NewRepository(conn), &testTxRunner{db: conn}, retail, logg, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}
