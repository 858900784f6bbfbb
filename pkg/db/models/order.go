package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	"github.com/itsriyaas/digitalcard-backend/pkg/types"
)

// Order represents a placed order with immutable line snapshots.
type Order struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CatalogueID uuid.UUID  `gorm:"column:catalogue_id;type:uuid;not null;index"`
	OrderNumber string     `gorm:"column:order_number;not null;uniqueIndex"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid"`
	SessionID   *string    `gorm:"column:session_id"`

	Customer        types.Customer `gorm:"column:customer;type:jsonb;serializer:json"`
	ShippingAddress types.Address  `gorm:"column:shipping_address;type:jsonb;serializer:json"`

	SubtotalCents int64   `gorm:"column:subtotal_cents;not null"`
	DiscountCents int64   `gorm:"column:discount_cents;not null;default:0"`
	CouponCode    *string `gorm:"column:coupon_code"`
	TotalCents    int64   `gorm:"column:total_cents;not null"`

	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`

	PaidAt      *time.Time `gorm:"column:paid_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	Notes       *string    `gorm:"column:notes"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
