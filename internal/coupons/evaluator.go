package coupons

import (
	"time"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
)

// Evaluate checks whether the coupon applies to a cart subtotal at the given
// instant and returns the discount in cents. The discount never exceeds the
// subtotal, so totals cannot go negative.
func Evaluate(coupon *models.Coupon, subtotalCents int64, now time.Time) (int64, error) {
	if coupon == nil {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if !coupon.IsActive {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon is inactive").
			WithDetails(map[string]any{"code": coupon.Code})
	}
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not yet valid").
			WithDetails(map[string]any{"code": coupon.Code, "valid_from": coupon.ValidFrom})
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired").
			WithDetails(map[string]any{"code": coupon.Code, "expires_at": coupon.ExpiresAt})
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached").
			WithDetails(map[string]any{"code": coupon.Code})
	}
	if subtotalCents < coupon.MinOrderCents {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "cart subtotal below coupon minimum").
			WithDetails(map[string]any{
				"code":            coupon.Code,
				"min_order_cents": coupon.MinOrderCents,
				"subtotal_cents":  subtotalCents,
			})
	}

	return ComputeDiscount(coupon, subtotalCents), nil
}

// ComputeDiscount returns the discount in cents for an already-validated
// coupon. Percentage discounts are capped by MaxDiscountCents when set; flat
// discounts are clamped to the subtotal.
func ComputeDiscount(coupon *models.Coupon, subtotalCents int64) int64 {
	if coupon == nil || subtotalCents <= 0 {
		return 0
	}

	var discount int64
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		discount = subtotalCents * coupon.Value / 100
		if coupon.MaxDiscountCents != nil && discount > *coupon.MaxDiscountCents {
			discount = *coupon.MaxDiscountCents
		}
	case enums.DiscountTypeFlat:
		discount = coupon.Value
	}

	if discount > subtotalCents {
		discount = subtotalCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
