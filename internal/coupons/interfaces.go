package coupons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
)

// Repository defines persistence operations for coupon rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, catalogueID uuid.UUID, code string) (*models.Coupon, error)
	ListByCatalogue(ctx context.Context, catalogueID uuid.UUID) ([]models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service exposes coupon management and validation for a catalogue.
type Service interface {
	Create(ctx context.Context, catalogueID uuid.UUID, input CreateCouponInput) (*models.Coupon, error)
	List(ctx context.Context, catalogueID uuid.UUID) ([]models.Coupon, error)
	Update(ctx context.Context, catalogueID, couponID uuid.UUID, input UpdateCouponInput) (*models.Coupon, error)
	Delete(ctx context.Context, catalogueID, couponID uuid.UUID) error
	Validate(ctx context.Context, catalogueID uuid.UUID, code string, subtotalCents int64) (*ValidationResult, error)
}
