package coupons

import (
	"time"

	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
)

// CreateCouponInput carries the fields accepted when creating a coupon.
type CreateCouponInput struct {
	Code             string             `json:"code" validate:"required,min=3,max=32"`
	DiscountType     enums.DiscountType `json:"discount_type" validate:"required"`
	Value            int64              `json:"value" validate:"required,gt=0"`
	MaxDiscountCents *int64             `json:"max_discount_cents" validate:"omitempty,gt=0"`
	MinOrderCents    int64              `json:"min_order_cents" validate:"gte=0"`
	UsageLimit       *int               `json:"usage_limit" validate:"omitempty,gt=0"`
	ValidFrom        *time.Time         `json:"valid_from"`
	ExpiresAt        *time.Time         `json:"expires_at"`
}

// UpdateCouponInput carries the mutable coupon fields.
type UpdateCouponInput struct {
	Value            *int64     `json:"value" validate:"omitempty,gt=0"`
	MaxDiscountCents *int64     `json:"max_discount_cents" validate:"omitempty,gt=0"`
	MinOrderCents    *int64     `json:"min_order_cents" validate:"omitempty,gte=0"`
	UsageLimit       *int       `json:"usage_limit" validate:"omitempty,gt=0"`
	ValidFrom        *time.Time `json:"valid_from"`
	ExpiresAt        *time.Time `json:"expires_at"`
	IsActive         *bool      `json:"is_active"`
}

// ValidationResult is returned by the public coupon validation endpoint.
type ValidationResult struct {
	Code          string `json:"code"`
	DiscountCents int64  `json:"discount_cents"`
	SubtotalCents int64  `json:"subtotal_cents"`
	TotalCents    int64  `json:"total_cents"`
}
