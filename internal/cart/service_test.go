package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	couponsvc "github.com/itsriyaas/digitalcard-backend/internal/coupons"
	productsvc "github.com/itsriyaas/digitalcard-backend/internal/products"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Cart{}, &models.CartItem{}, &models.Product{}, &models.Coupon{},
	); err != nil {
		t.Fatalf("migrate cart tables: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(db),
		productsvc.NewRepository(db),
		couponsvc.NewRepository(db),
		logger.New(logger.Options{ServiceName: "test"}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, catalogueID uuid.UUID, priceCents int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		CatalogueID:    catalogueID,
		Name:           "Notebook",
		PriceCents:     priceCents,
		Stock:          stock,
		StockAvailable: true,
		IsActive:       true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedEnquiryProduct(t *testing.T, db *gorm.DB, catalogueID uuid.UUID, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		CatalogueID:    catalogueID,
		Name:           "Custom Portrait",
		IsEnquiry:      true,
		Stock:          stock,
		StockAvailable: true,
		IsActive:       true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed enquiry product: %v", err)
	}
	return product
}

func seedCoupon(t *testing.T, db *gorm.DB, catalogueID uuid.UUID, mutate func(*models.Coupon)) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		CatalogueID:  catalogueID,
		Code:         "SAVE10",
		DiscountType: enums.DiscountTypePercentage,
		Value:        10,
		IsActive:     true,
	}
	if mutate != nil {
		mutate(coupon)
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	return coupon
}

func TestIdentityValidate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	if err := UserIdentity(userID).Validate(); err != nil {
		t.Fatalf("user identity should be valid: %v", err)
	}
	if err := SessionIdentity("sess-1").Validate(); err != nil {
		t.Fatalf("session identity should be valid: %v", err)
	}
	if err := (Identity{}).Validate(); err == nil {
		t.Fatal("empty identity should be invalid")
	}
	session := "sess-1"
	both := Identity{UserID: &userID, SessionID: &session}
	if err := both.Validate(); err == nil {
		t.Fatal("identity with both owners should be invalid")
	}
}

func TestAddItemComputesTotals(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()
	product := seedProduct(t, db, catalogueID, 1500, 10)
	identity := SessionIdentity("sess-totals")

	cart, err := svc.AddItem(ctx, catalogueID, identity, AddItemInput{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if cart.SubtotalCents != 3000 || cart.TotalCents != 3000 {
		t.Fatalf("unexpected totals %d/%d", cart.SubtotalCents, cart.TotalCents)
	}

	// Adding the same product again merges the line.
	cart, err = svc.AddItem(ctx, catalogueID, identity, AddItemInput{ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 {
		t.Fatalf("expected merged line with qty 3, got %+v", cart.Items)
	}
	if cart.SubtotalCents != 4500 {
		t.Fatalf("expected subtotal 4500, got %d", cart.SubtotalCents)
	}
}

func TestAddItemRejectsBeyondStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()
	product := seedProduct(t, db, catalogueID, 1000, 2)

	_, err := svc.AddItem(ctx, catalogueID, SessionIdentity("sess-stock"), AddItemInput{ProductID: product.ID, Quantity: 3})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out of stock, got %v", err)
	}
}

func TestAddItemRejectsWhenAvailabilityGateClosed(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()
	product := seedProduct(t, db, catalogueID, 1000, 10)
	if err := db.Model(product).Update("stock_available", false).Error; err != nil {
		t.Fatalf("close availability gate: %v", err)
	}

	_, err := svc.AddItem(ctx, catalogueID, SessionIdentity("sess-gate"), AddItemInput{ProductID: product.ID, Quantity: 1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out of stock despite stock on hand, got %v", err)
	}
}

func TestEnquiryLinesCarryNoPrice(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()
	priced := seedProduct(t, db, catalogueID, 1500, 10)
	enquiry := seedEnquiryProduct(t, db, catalogueID, 10)
	identity := SessionIdentity("sess-enquiry")

	if _, err := svc.AddItem(ctx, catalogueID, identity, AddItemInput{ProductID: priced.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	cart, err := svc.AddItem(ctx, catalogueID, identity, AddItemInput{ProductID: enquiry.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	// Subtotal covers priced lines only.
	if cart.SubtotalCents != 3000 || cart.TotalCents != 3000 {
		t.Fatalf("unexpected totals %d/%d", cart.SubtotalCents, cart.TotalCents)
	}
	line := findItem(cart, enquiry.ID)
	if line == nil {
		t.Fatal("expected enquiry line in cart")
	}
	if !line.IsEnquiry || line.UnitPriceCents != nil || line.LineSubtotalCents != 0 {
		t.Fatalf("expected priceless enquiry line, got %+v", line)
	}
}

func TestApplyCouponAndRecompute(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()
	product := seedProduct(t, db, catalogueID, 10000, 10)
	seedCoupon(t, db, catalogueID, nil)
	identity := SessionIdentity("sess-coupon")

	if _, err := svc.AddItem(ctx, catalogueID, identity, AddItemInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	cart, err := svc.ApplyCoupon(ctx, catalogueID, identity, "save10")
	if err != nil {
		t.Fatalf("ApplyCoupon returned error: %v", err)
	}
	if cart.DiscountCents != 1000 || cart.TotalCents != 9000 {
		t.Fatalf("unexpected discount/total %d/%d", cart.DiscountCents, cart.TotalCents)
	}

	// Growing the cart re-evaluates the discount against the new subtotal.
	cart, err = svc.AddItem(ctx, catalogueID, identity, AddItemInput{ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if cart.DiscountCents != 2000 || cart.TotalCents != 18000 {
		t.Fatalf("expected recomputed discount, got %d/%d", cart.DiscountCents, cart.TotalCents)
	}
}

func TestCouponDetachedWhenNoLongerValid(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()
	product := seedProduct(t, db, catalogueID, 10000, 10)
	coupon := seedCoupon(t, db, catalogueID, func(c *models.Coupon) {
		c.MinOrderCents = 15000
	})
	identity := SessionIdentity("sess-detach")

	if _, err := svc.AddItem(ctx, catalogueID, identity, AddItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if _, err := svc.ApplyCoupon(ctx, catalogueID, identity, coupon.Code); err != nil {
		t.Fatalf("ApplyCoupon returned error: %v", err)
	}

	// Dropping below the coupon minimum detaches it.
	cart, err := svc.SetItemQuantity(ctx, catalogueID, identity, product.ID, 1)
	if err != nil {
		t.Fatalf("SetItemQuantity returned error: %v", err)
	}
	if cart.CouponID != nil || cart.DiscountCents != 0 {
		t.Fatalf("expected coupon detached, got %+v", cart)
	}
	if cart.TotalCents != 10000 {
		t.Fatalf("expected total 10000, got %d", cart.TotalCents)
	}
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()
	product := seedProduct(t, db, catalogueID, 500, 5)
	identity := UserIdentity(uuid.New())

	if _, err := svc.AddItem(ctx, catalogueID, identity, AddItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	cart, err := svc.SetItemQuantity(ctx, catalogueID, identity, product.ID, 0)
	if err != nil {
		t.Fatalf("SetItemQuantity returned error: %v", err)
	}
	if len(cart.Items) != 0 || cart.TotalCents != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
}

func TestClearResetsCartAndCoupon(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()
	product := seedProduct(t, db, catalogueID, 2500, 5)
	seedCoupon(t, db, catalogueID, nil)
	identity := SessionIdentity("sess-clear")

	if _, err := svc.AddItem(ctx, catalogueID, identity, AddItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if _, err := svc.ApplyCoupon(ctx, catalogueID, identity, "SAVE10"); err != nil {
		t.Fatalf("ApplyCoupon returned error: %v", err)
	}

	cart, err := svc.Clear(ctx, catalogueID, identity)
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if len(cart.Items) != 0 || cart.CouponID != nil || cart.TotalCents != 0 {
		t.Fatalf("expected reset cart, got %+v", cart)
	}
}

func TestCartsAreScopedPerIdentity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()
	product := seedProduct(t, db, catalogueID, 1000, 10)

	if _, err := svc.AddItem(ctx, catalogueID, SessionIdentity("sess-a"), AddItemInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	other, err := svc.Get(ctx, catalogueID, SessionIdentity("sess-b"))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(other.Items) != 0 {
		t.Fatalf("expected isolated cart, got %d items", len(other.Items))
	}
}
