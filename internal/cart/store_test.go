package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
)

type memoryBackend struct {
	data map[string]string
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: map[string]string{}}
}

func (m *memoryBackend) Set(_ context.Context, key string, value any, _ time.Duration) error {
	str, _ := value.(string)
	m.data[key] = str
	return nil
}

func (m *memoryBackend) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redislib.Nil
}

func (m *memoryBackend) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

type plainKeyer struct{}

func (plainKeyer) CartKey(id string) string {
	return "cart:" + id
}

func newTestStore() *Store {
	return &Store{backend: newMemoryBackend(), keyer: plainKeyer{}, ttl: time.Minute}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	cartID := uuid.New()

	c := New()
	c.upsert(Line{ProductID: uuid.New(), SKU: "COLA-600", Name: "Cola 600ml", UnitPrice: decimal.NewFromFloat(18.50), Qty: 3})
	c.upsert(Line{ProductID: uuid.New(), SKU: "CHIP-45", Name: "Chips 45g", UnitPrice: decimal.NewFromFloat(14), Qty: 1})

	if err := store.Save(ctx, cartID, c); err != nil {
		t.Fatalf("save cart: %v", err)
	}

	loaded, err := store.Load(ctx, cartID)
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if loaded.ItemCount() != 4 {
		t.Fatalf("expected 4 units, got %d", loaded.ItemCount())
	}
	if !loaded.Subtotal().Equal(c.Subtotal()) {
		t.Fatalf("subtotal changed across round trip: %s vs %s", loaded.Subtotal(), c.Subtotal())
	}
	lines := loaded.Lines()
	if lines[0].SKU != "COLA-600" || lines[1].SKU != "CHIP-45" {
		t.Fatalf("line order not preserved: %+v", lines)
	}
}

func TestStoreLoadMissingCart(t *testing.T) {
	store := newTestStore()

	_, err := store.Load(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	cartID := uuid.New()

	c := New()
	c.upsert(Line{ProductID: uuid.New(), SKU: "COLA-600", Name: "Cola 600ml", UnitPrice: decimal.NewFromFloat(18.50), Qty: 1})
	if err := store.Save(ctx, cartID, c); err != nil {
		t.Fatalf("save cart: %v", err)
	}

	if err := store.Delete(ctx, cartID); err != nil {
		t.Fatalf("delete cart: %v", err)
	}
	if _, err := store.Load(ctx, cartID); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	// Deleting again is a no-op.
	if err := store.Delete(ctx, cartID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}
