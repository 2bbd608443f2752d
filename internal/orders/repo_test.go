package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:orders_repo_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Order{},
		&models.OrderLineItem{},
		&models.OrderStatusHistory{},
	))
	return conn
}

func seedOrder(t *testing.T, repo Repository, number int64, status enums.OrderStatus, payment enums.PaymentStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		OrderNumber:   number,
		PaymentMethod: enums.PaymentMethodCash,
		PaymentStatus: payment,
		Subtotal:      decimal.RequireFromString("10.00"),
		Tax:           decimal.RequireFromString("0.50"),
		Total:         decimal.RequireFromString("10.50"),
		Status:        status,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestNextOrderNumberStartsAtOne(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))

	next, err := repo.NextOrderNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	seedOrder(t, repo, next, enums.OrderStatusPending, enums.PaymentStatusPending)

	next, err = repo.NextOrderNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
}

func TestFindByIDPreloadsItemsAndHistory(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	order := seedOrder(t, repo, 1, enums.OrderStatusPending, enums.PaymentStatusPending)
	require.NoError(t, repo.CreateLineItems(ctx, []models.OrderLineItem{
		{
			OrderID:   order.ID,
			ProductID: uuid.New(),
			Name:      "Harina de maiz 1kg",
			Qty:       2,
			UnitPrice: decimal.RequireFromString("5.00"),
			LineTotal: decimal.RequireFromString("10.00"),
		},
	}))

	first := &models.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    enums.OrderStatusPending,
		Actor:     "system",
		CreatedAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.AppendHistory(ctx, first))
	require.NoError(t, repo.AppendHistory(ctx, &models.OrderStatusHistory{
		OrderID: order.ID,
		Status:  enums.OrderStatusPacked,
		Actor:   "maria",
	}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Harina de maiz 1kg", found.Items[0].Name)
	require.Len(t, found.StatusHistory, 2)
	assert.Equal(t, enums.OrderStatusPending, found.StatusHistory[0].Status)
	assert.Equal(t, enums.OrderStatusPacked, found.StatusHistory[1].Status)
}

func TestFindByIdempotencyKey(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	key := "chk-" + uuid.NewString()
	order := seedOrder(t, repo, 1, enums.OrderStatusPending, enums.PaymentStatusPending)
	require.NoError(t, repo.Update(ctx, order.ID, map[string]any{"idempotency_key": key}))

	found, err := repo.FindByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.FindByIdempotencyKey(ctx, "chk-missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListFiltersByStatusAndPayment(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	seedOrder(t, repo, 1, enums.OrderStatusPending, enums.PaymentStatusPending)
	packed := seedOrder(t, repo, 2, enums.OrderStatusPacked, enums.PaymentStatusPaid)
	seedOrder(t, repo, 3, enums.OrderStatusCancelled, enums.PaymentStatusRefunded)

	status := enums.OrderStatusPacked
	got, err := repo.List(ctx, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, packed.ID, got[0].ID)

	paid := enums.PaymentStatusPaid
	got, err = repo.List(ctx, ListFilters{PaymentStatus: &paid})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, packed.ID, got[0].ID)

	got, err = repo.List(ctx, ListFilters{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUpdateAppliesColumnMap(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	order := seedOrder(t, repo, 1, enums.OrderStatusPending, enums.PaymentStatusPending)
	tracking := "TND-20260830-0001"
	require.NoError(t, repo.Update(ctx, order.ID, map[string]any{
		"status":      enums.OrderStatusShipped,
		"tracking_id": tracking,
	}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, found.Status)
	require.NotNil(t, found.TrackingID)
	assert.Equal(t, tracking, *found.TrackingID)
}
