package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/internal/coupons"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

type service struct {
	repo     Repository
	products ProductReader
	coupons  CouponReader
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the cart service with its dependencies.
func NewService(repo Repository, products ProductReader, couponReader CouponReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("cart repository is required")
	}
	if products == nil {
		return nil, errors.New("product reader is required")
	}
	if couponReader == nil {
		return nil, errors.New("coupon reader is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{
		repo:     repo,
		products: products,
		coupons:  couponReader,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, catalogueID uuid.UUID, identity Identity) (*models.Cart, error) {
	return s.findOrCreate(ctx, catalogueID, identity)
}

func (s *service) AddItem(ctx context.Context, catalogueID uuid.UUID, identity Identity, input AddItemInput) (*models.Cart, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.findOrCreate(ctx, catalogueID, identity)
	if err != nil {
		return nil, err
	}

	product, err := s.loadProduct(ctx, catalogueID, input.ProductID)
	if err != nil {
		return nil, err
	}

	existing := findItem(cart, input.ProductID)
	requested := input.Quantity
	if existing != nil {
		requested += existing.Quantity
	}
	if !product.StockAvailable || requested > product.Stock {
		return nil, outOfStock(product, requested)
	}

	item := existing
	if item == nil {
		item = &models.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
		}
	}
	item.ProductName = product.Name
	item.Quantity = requested
	captureLine(item, product)

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart item")
	}
	return s.recompute(ctx, catalogueID, identity)
}

func (s *service) SetItemQuantity(ctx context.Context, catalogueID uuid.UUID, identity Identity, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, catalogueID, identity, productID)
	}

	cart, err := s.findOrCreate(ctx, catalogueID, identity)
	if err != nil {
		return nil, err
	}

	item := findItem(cart, productID)
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}

	product, err := s.loadProduct(ctx, catalogueID, productID)
	if err != nil {
		return nil, err
	}
	if !product.StockAvailable || quantity > product.Stock {
		return nil, outOfStock(product, quantity)
	}

	item.ProductName = product.Name
	item.Quantity = quantity
	captureLine(item, product)

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart item")
	}
	return s.recompute(ctx, catalogueID, identity)
}

func (s *service) RemoveItem(ctx context.Context, catalogueID uuid.UUID, identity Identity, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.findOrCreate(ctx, catalogueID, identity)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}
	return s.recompute(ctx, catalogueID, identity)
}

func (s *service) ApplyCoupon(ctx context.Context, catalogueID uuid.UUID, identity Identity, code string) (*models.Cart, error) {
	cart, err := s.findOrCreate(ctx, catalogueID, identity)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot apply a coupon to an empty cart")
	}

	coupon, err := s.coupons.FindByCode(ctx, catalogueID, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}

	subtotal := itemsSubtotal(cart)
	if _, err := coupons.Evaluate(coupon, subtotal, s.now()); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"coupon_id":   coupon.ID,
		"coupon_code": coupon.Code,
	}
	if err := s.repo.UpdateCart(ctx, cart.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying coupon")
	}
	return s.recompute(ctx, catalogueID, identity)
}

func (s *service) RemoveCoupon(ctx context.Context, catalogueID uuid.UUID, identity Identity) (*models.Cart, error) {
	cart, err := s.findOrCreate(ctx, catalogueID, identity)
	if err != nil {
		return nil, err
	}
	if err := s.detachCoupon(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.recompute(ctx, catalogueID, identity)
}

func (s *service) Clear(ctx context.Context, catalogueID uuid.UUID, identity Identity) (*models.Cart, error) {
	cart, err := s.findOrCreate(ctx, catalogueID, identity)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	if err := s.detachCoupon(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.recompute(ctx, catalogueID, identity)
}

func (s *service) findOrCreate(ctx context.Context, catalogueID uuid.UUID, identity Identity) (*models.Cart, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindWithItems(ctx, catalogueID, identity)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	fresh := &models.Cart{
		CatalogueID: catalogueID,
		UserID:      identity.UserID,
		SessionID:   identity.SessionID,
	}
	created, err := s.repo.Create(ctx, fresh)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart")
	}
	return created, nil
}

// recompute reloads the cart, derives subtotal and discount from current
// state and persists the totals. A coupon that stopped being valid is
// silently detached.
func (s *service) recompute(ctx context.Context, catalogueID uuid.UUID, identity Identity) (*models.Cart, error) {
	cart, err := s.repo.FindWithItems(ctx, catalogueID, identity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading cart")
	}

	subtotal := itemsSubtotal(cart)
	var discount int64

	if cart.CouponID != nil {
		coupon, err := s.coupons.FindByID(ctx, *cart.CouponID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading applied coupon")
		}
		if coupon != nil {
			discount, err = coupons.Evaluate(coupon, subtotal, s.now())
			if err != nil {
				discount = 0
				coupon = nil
			}
		}
		if coupon == nil {
			if err := s.detachCoupon(ctx, cart.ID); err != nil {
				return nil, err
			}
			cart.CouponID = nil
			cart.CouponCode = nil
		}
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	updates := map[string]any{
		"subtotal_cents": subtotal,
		"discount_cents": discount,
		"total_cents":    total,
	}
	if err := s.repo.UpdateCart(ctx, cart.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart totals")
	}

	cart.SubtotalCents = subtotal
	cart.DiscountCents = discount
	cart.TotalCents = total
	return cart, nil
}

func (s *service) detachCoupon(ctx context.Context, cartID uuid.UUID) error {
	updates := map[string]any{
		"coupon_id":      nil,
		"coupon_code":    nil,
		"discount_cents": 0,
	}
	if err := s.repo.UpdateCart(ctx, cartID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing coupon")
	}
	return nil
}

func (s *service) loadProduct(ctx context.Context, catalogueID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product.CatalogueID != catalogueID || !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func findItem(cart *models.Cart, productID uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			return &cart.Items[i]
		}
	}
	return nil
}

// captureLine freezes the product price onto the line. Enquiry products
// carry no price; their lines never contribute to the totals.
func captureLine(item *models.CartItem, product *models.Product) {
	if product.IsEnquiry {
		item.IsEnquiry = true
		item.UnitPriceCents = nil
		item.LineSubtotalCents = 0
		return
	}
	price := product.PriceCents
	item.IsEnquiry = false
	item.UnitPriceCents = &price
	item.LineSubtotalCents = price * int64(item.Quantity)
}

func itemsSubtotal(cart *models.Cart) int64 {
	var subtotal int64
	for i := range cart.Items {
		item := &cart.Items[i]
		if !item.Priced() {
			continue
		}
		subtotal += *item.UnitPriceCents * int64(item.Quantity)
	}
	return subtotal
}

func outOfStock(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
		WithDetails(map[string]any{
			"product_id": product.ID,
			"requested":  requested,
			"available":  product.Stock,
		})
}
