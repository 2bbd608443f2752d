package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
)

// Repository defines persistence operations for orders and their audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	NextOrderNumber(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	List(ctx context.Context, filters ListFilters) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
}

// Service moves orders through their lifecycle.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*OrderDetail, error)
	List(ctx context.Context, filters ListFilters) ([]OrderDetail, error)
	Transition(ctx context.Context, input TransitionInput) (*OrderDetail, error)
	RecordDeliveryAttempt(ctx context.Context, input DeliveryAttemptInput) (*OrderDetail, error)
}
