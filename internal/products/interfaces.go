package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/pagination"
)

// Repository defines persistence operations for product rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	ListByCatalogue(ctx context.Context, catalogueID uuid.UUID, params pagination.Params, onlyActive bool) (*ProductList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error
}

// Service exposes product management for merchants and public reads.
type Service interface {
	Create(ctx context.Context, catalogueID uuid.UUID, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, catalogueID uuid.UUID, params pagination.Params, onlyActive bool) (*ProductList, error)
	Update(ctx context.Context, catalogueID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, catalogueID, productID uuid.UUID) error
}
