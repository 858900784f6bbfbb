package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
)

// Coupon represents a discount code scoped to a catalogue.
//
// Value is a percentage (0-100) for percentage coupons and an amount in
// cents for flat coupons.
type Coupon struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CatalogueID      uuid.UUID          `gorm:"column:catalogue_id;type:uuid;not null;uniqueIndex:ux_coupons_catalogue_code"`
	Code             string             `gorm:"column:code;not null;uniqueIndex:ux_coupons_catalogue_code"`
	DiscountType     enums.DiscountType `gorm:"column:discount_type;not null"`
	Value            int64              `gorm:"column:value;not null"`
	MaxDiscountCents *int64             `gorm:"column:max_discount_cents"`
	MinOrderCents    int64              `gorm:"column:min_order_cents;not null;default:0"`
	UsageLimit       *int               `gorm:"column:usage_limit"`
	UsedCount        int                `gorm:"column:used_count;not null;default:0"`
	ValidFrom        *time.Time         `gorm:"column:valid_from"`
	ExpiresAt        *time.Time         `gorm:"column:expires_at"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
