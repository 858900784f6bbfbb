package coupons

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/itsriyaas/digitalcard-backend/pkg/db"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the coupon service with its dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("coupons repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, catalogueID uuid.UUID, input CreateCouponInput) (*models.Coupon, error) {
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type").
			WithDetails(map[string]any{"discount_type": input.DiscountType})
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.Value > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage value cannot exceed 100")
	}
	if input.ValidFrom != nil && input.ExpiresAt != nil && input.ExpiresAt.Before(*input.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry precedes validity window")
	}

	coupon := &models.Coupon{
		CatalogueID:      catalogueID,
		Code:             normalizeCode(input.Code),
		DiscountType:     input.DiscountType,
		Value:            input.Value,
		MaxDiscountCents: input.MaxDiscountCents,
		MinOrderCents:    input.MinOrderCents,
		UsageLimit:       input.UsageLimit,
		ValidFrom:        input.ValidFrom,
		ExpiresAt:        input.ExpiresAt,
		IsActive:         true,
	}

	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_coupons_catalogue_code") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating coupon")
	}
	return created, nil
}

func (s *service) List(ctx context.Context, catalogueID uuid.UUID) ([]models.Coupon, error) {
	coupons, err := s.repo.ListByCatalogue(ctx, catalogueID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing coupons")
	}
	return coupons, nil
}

func (s *service) Update(ctx context.Context, catalogueID, couponID uuid.UUID, input UpdateCouponInput) (*models.Coupon, error) {
	coupon, err := s.findOwned(ctx, catalogueID, couponID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Value != nil {
		if coupon.DiscountType == enums.DiscountTypePercentage && *input.Value > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage value cannot exceed 100")
		}
		updates["value"] = *input.Value
	}
	if input.MaxDiscountCents != nil {
		updates["max_discount_cents"] = *input.MaxDiscountCents
	}
	if input.MinOrderCents != nil {
		updates["min_order_cents"] = *input.MinOrderCents
	}
	if input.UsageLimit != nil {
		updates["usage_limit"] = *input.UsageLimit
	}
	if input.ValidFrom != nil {
		updates["valid_from"] = *input.ValidFrom
	}
	if input.ExpiresAt != nil {
		updates["expires_at"] = *input.ExpiresAt
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return coupon, nil
	}

	if err := s.repo.Update(ctx, couponID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating coupon")
	}
	return s.repo.FindByID(ctx, couponID)
}

func (s *service) Delete(ctx context.Context, catalogueID, couponID uuid.UUID) error {
	if _, err := s.findOwned(ctx, catalogueID, couponID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, couponID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting coupon")
	}
	return nil
}

func (s *service) Validate(ctx context.Context, catalogueID uuid.UUID, code string, subtotalCents int64) (*ValidationResult, error) {
	coupon, err := s.repo.FindByCode(ctx, catalogueID, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}

	discount, err := Evaluate(coupon, subtotalCents, s.now())
	if err != nil {
		return nil, err
	}

	return &ValidationResult{
		Code:          coupon.Code,
		DiscountCents: discount,
		SubtotalCents: subtotalCents,
		TotalCents:    subtotalCents - discount,
	}, nil
}

func (s *service) findOwned(ctx context.Context, catalogueID, couponID uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, couponID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}
	if coupon.CatalogueID != catalogueID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "coupon belongs to another catalogue")
	}
	return coupon, nil
}
