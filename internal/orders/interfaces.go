package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/internal/cart"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	"github.com/itsriyaas/digitalcard-backend/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, catalogueID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	MarkPaidOnce(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service exposes merchant order management and buyer order views.
type Service interface {
	Get(ctx context.Context, catalogueID, orderID uuid.UUID) (*models.Order, error)
	GetForBuyer(ctx context.Context, catalogueID uuid.UUID, identity cart.Identity, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, catalogueID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	UpdateStatus(ctx context.Context, catalogueID, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, catalogueID, orderID uuid.UUID, next enums.PaymentStatus) (*models.Order, error)
}
