package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem persists a product-level snapshot tied to a Cart. Enquiry lines
// carry no price and never contribute to the cart totals.
type CartItem struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID            uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName       string    `gorm:"column:product_name;not null"`
	UnitPriceCents    *int64    `gorm:"column:unit_price_cents"`
	IsEnquiry         bool      `gorm:"column:is_enquiry;not null;default:false"`
	Quantity          int       `gorm:"column:quantity;not null"`
	LineSubtotalCents int64     `gorm:"column:line_subtotal_cents;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Priced reports whether the line carries a unit price and counts toward the
// cart subtotal.
func (c *CartItem) Priced() bool {
	return !c.IsEnquiry && c.UnitPriceCents != nil
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
