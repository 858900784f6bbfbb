package products

import (
	"github.com/google/uuid"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/types"
)

// CreateProductInput carries the fields accepted when creating a product.
// Enquiry-only products carry no purchasable price.
type CreateProductInput struct {
	Name                string           `json:"name" validate:"required,min=2,max=200"`
	Description         *string          `json:"description"`
	CategoryID          *uuid.UUID       `json:"category_id"`
	PriceCents          int64            `json:"price_cents" validate:"gte=0"`
	CompareAtPriceCents *int64           `json:"compare_at_price_cents" validate:"omitempty,gt=0"`
	Stock               int              `json:"stock" validate:"gte=0"`
	StockAvailable      *bool            `json:"stock_available"`
	IsEnquiry           bool             `json:"is_enquiry"`
	Images              types.StringList `json:"images" validate:"max=10,dive,url"`
}

// UpdateProductInput carries the mutable product fields.
type UpdateProductInput struct {
	Name                *string          `json:"name" validate:"omitempty,min=2,max=200"`
	Description         *string          `json:"description"`
	CategoryID          *uuid.UUID       `json:"category_id"`
	PriceCents          *int64           `json:"price_cents" validate:"omitempty,gt=0"`
	CompareAtPriceCents *int64           `json:"compare_at_price_cents" validate:"omitempty,gt=0"`
	Stock               *int             `json:"stock" validate:"omitempty,gte=0"`
	StockAvailable      *bool            `json:"stock_available"`
	Images              types.StringList `json:"images" validate:"max=10,dive,url"`
	IsActive            *bool            `json:"is_active"`
}

// ProductList wraps the paginated products plus the next page cursor.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
