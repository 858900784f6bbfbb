package catalogues

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
)

// Repository defines persistence operations for catalogue rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, catalogue *models.Catalogue) (*models.Catalogue, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Catalogue, error)
	FindBySlug(ctx context.Context, slug string) (*models.Catalogue, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Catalogue, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	IncrementVisits(ctx context.Context, id uuid.UUID) error
	RecordOrder(ctx context.Context, id uuid.UUID) error
	AddRevenue(ctx context.Context, id uuid.UUID, amountCents int64) error
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	ListCategories(ctx context.Context, catalogueID uuid.UUID, onlyActive bool) ([]models.Category, error)
}

// VisitorDeduper remembers recent visitors so repeat hits within the window
// do not inflate the visit counter.
type VisitorDeduper interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	VisitorKey(catalogueID, visitorID string) string
}

// Service exposes catalogue management and the public storefront read.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateCatalogueInput) (*models.Catalogue, error)
	GetOwned(ctx context.Context, userID, catalogueID uuid.UUID) (*models.Catalogue, error)
	ListOwned(ctx context.Context, userID uuid.UUID) ([]models.Catalogue, error)
	Update(ctx context.Context, userID, catalogueID uuid.UUID, input UpdateCatalogueInput) (*models.Catalogue, error)
	GetPublic(ctx context.Context, slug string, visitorID string) (*models.Catalogue, error)
	ResolveSlug(ctx context.Context, slug string) (*models.Catalogue, error)
	CreateCategory(ctx context.Context, catalogueID uuid.UUID, input CreateCategoryInput) (*models.Category, error)
	ListCategories(ctx context.Context, catalogueID uuid.UUID, onlyActive bool) ([]models.Category, error)
}
