package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/types"
)

// Product represents a purchasable catalogue listing.
type Product struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CatalogueID         uuid.UUID        `gorm:"column:catalogue_id;type:uuid;not null;index"`
	CategoryID          *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	Name                string           `gorm:"column:name;not null"`
	Description         *string          `gorm:"column:description"`
	PriceCents          int64            `gorm:"column:price_cents;not null"`
	CompareAtPriceCents *int64           `gorm:"column:compare_at_price_cents"`
	Stock               int              `gorm:"column:stock;not null;default:0"`
	StockAvailable      bool             `gorm:"column:stock_available;not null;default:false"`
	IsEnquiry           bool             `gorm:"column:is_enquiry;not null;default:false"`
	Images              types.StringList `gorm:"column:images;type:jsonb;serializer:json"`
	IsActive            bool             `gorm:"column:is_active;not null;default:true"`
	OrdersCount         int              `gorm:"column:orders_count;not null;default:0"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// InStock reports whether the product can currently be bought. The boolean
// gate and the unit count are independent; both must pass.
func (p *Product) InStock() bool {
	return p.StockAvailable && p.Stock > 0
}
