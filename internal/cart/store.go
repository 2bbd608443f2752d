package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
	redisclient "github.com/avilesmedina/tiendita-backend/pkg/redis"
)

const defaultCartTTL = 24 * time.Hour

type cartBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type cartKeyer interface {
	CartKey(id string) string
}

// Store keeps session carts in Redis so they survive between requests
// without ever touching the database. Carts expire on their own; checkout
// deletes the winning cart explicitly.
type Store struct {
	backend cartBackend
	keyer   cartKeyer
	ttl     time.Duration
}

// NewStore constructs a cart store backed by Redis.
func NewStore(client *redisclient.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &Store{backend: client, keyer: client, ttl: ttl}, nil
}

// Save writes the cart's lines under its session id, refreshing the TTL.
func (s *Store) Save(ctx context.Context, id uuid.UUID, c *Cart) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if c == nil {
		c = New()
	}
	payload, err := json.Marshal(c.Lines())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.backend.Set(ctx, s.keyer.CartKey(id.String()), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store cart")
	}
	return nil
}

// Load rebuilds the cart stored under the session id.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Cart, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	stored, err := s.backend.Get(ctx, s.keyer.CartKey(id.String()))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	var lines []Line
	if err := json.Unmarshal([]byte(stored), &lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	return Restore(lines), nil
}

// Delete drops the cart. Missing carts are not an error.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	if err := s.backend.Del(ctx, s.keyer.CartKey(id.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}
