package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart holds the in-progress selection for one buyer within one catalogue.
// Exactly one of UserID or SessionID identifies the owner.
type Cart struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CatalogueID uuid.UUID  `gorm:"column:catalogue_id;type:uuid;not null;index"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid;index:ix_carts_catalogue_user"`
	SessionID   *string    `gorm:"column:session_id;index:ix_carts_catalogue_session"`

	CouponID      *uuid.UUID `gorm:"column:coupon_id;type:uuid"`
	CouponCode    *string    `gorm:"column:coupon_code"`
	DiscountCents int64      `gorm:"column:discount_cents;not null;default:0"`
	SubtotalCents int64      `gorm:"column:subtotal_cents;not null;default:0"`
	TotalCents    int64      `gorm:"column:total_cents;not null;default:0"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
