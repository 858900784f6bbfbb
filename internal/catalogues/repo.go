package catalogues

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalogues repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, catalogue *models.Catalogue) (*models.Catalogue, error) {
	if err := r.db.WithContext(ctx).Create(catalogue).Error; err != nil {
		return nil, err
	}
	return catalogue, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Catalogue, error) {
	var catalogue models.Catalogue
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&catalogue).Error
	if err != nil {
		return nil, err
	}
	return &catalogue, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Catalogue, error) {
	var catalogue models.Catalogue
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&catalogue).Error
	if err != nil {
		return nil, err
	}
	return &catalogue, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Catalogue, error) {
	var catalogues []models.Catalogue
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&catalogues).Error
	return catalogues, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Catalogue{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// IncrementVisits bumps the visit counter without read-modify-write.
func (r *repository) IncrementVisits(ctx context.Context, id uuid.UUID) error {
	return r.counterAdd(ctx, id, "total_visits", 1)
}

// RecordOrder bumps the order counter without read-modify-write.
func (r *repository) RecordOrder(ctx context.Context, id uuid.UUID) error {
	return r.counterAdd(ctx, id, "total_orders", 1)
}

// AddRevenue books captured revenue against the catalogue.
func (r *repository) AddRevenue(ctx context.Context, id uuid.UUID, amountCents int64) error {
	if amountCents < 0 {
		return fmt.Errorf("revenue must not be negative, got %d", amountCents)
	}
	return r.counterAdd(ctx, id, "total_revenue_cents", amountCents)
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *repository) ListCategories(ctx context.Context, catalogueID uuid.UUID, onlyActive bool) ([]models.Category, error) {
	query := r.db.WithContext(ctx).
		Where("catalogue_id = ?", catalogueID).
		Order("sort_order ASC").
		Order("created_at ASC")
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var categories []models.Category
	err := query.Find(&categories).Error
	return categories, err
}

func (r *repository) counterAdd(ctx context.Context, id uuid.UUID, column string, delta int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Catalogue{}).
		Where("id = ?", id).
		Update(column, gorm.Expr(column+" + ?", delta)).Error
}
