package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Catalogue represents a merchant storefront reachable by slug.
type Catalogue struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	LogoURL     *string   `gorm:"column:logo_url"`
	WhatsApp    *string   `gorm:"column:whatsapp"`
	IsPublished bool      `gorm:"column:is_published;not null;default:true"`

	// Monotonic analytics counters, mutated only through atomic updates.
	TotalVisits       int64 `gorm:"column:total_visits;not null;default:0"`
	TotalOrders       int64 `gorm:"column:total_orders;not null;default:0"`
	TotalRevenueCents int64 `gorm:"column:total_revenue_cents;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Catalogue) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
