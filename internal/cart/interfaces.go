package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
)

// Repository defines persistence operations for carts and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindWithItems(ctx context.Context, catalogueID uuid.UUID, identity Identity) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	UpdateCart(ctx context.Context, cartID uuid.UUID, updates map[string]any) error
}

// ProductReader is the slice of the products repository the cart needs.
type ProductReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CouponReader is the slice of the coupons repository the cart needs.
type CouponReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, catalogueID uuid.UUID, code string) (*models.Coupon, error)
}

// Service exposes the buyer-facing cart operations.
type Service interface {
	Get(ctx context.Context, catalogueID uuid.UUID, identity Identity) (*models.Cart, error)
	AddItem(ctx context.Context, catalogueID uuid.UUID, identity Identity, input AddItemInput) (*models.Cart, error)
	SetItemQuantity(ctx context.Context, catalogueID uuid.UUID, identity Identity, productID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, catalogueID uuid.UUID, identity Identity, productID uuid.UUID) (*models.Cart, error)
	ApplyCoupon(ctx context.Context, catalogueID uuid.UUID, identity Identity, code string) (*models.Cart, error)
	RemoveCoupon(ctx context.Context, catalogueID uuid.UUID, identity Identity) (*models.Cart, error)
	Clear(ctx context.Context, catalogueID uuid.UUID, identity Identity) (*models.Cart, error)
}

// AddItemInput carries the payload for adding a product to the cart.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}
