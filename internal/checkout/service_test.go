package checkout

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	cartpkg "github.com/itsriyaas/digitalcard-backend/internal/cart"
	cataloguesvc "github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	couponsvc "github.com/itsriyaas/digitalcard-backend/internal/coupons"
	ordersvc "github.com/itsriyaas/digitalcard-backend/internal/orders"
	productsvc "github.com/itsriyaas/digitalcard-backend/internal/products"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
	"github.com/itsriyaas/digitalcard-backend/pkg/outbox"
	"github.com/itsriyaas/digitalcard-backend/pkg/types"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Catalogue{}, &models.Product{}, &models.Coupon{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{}, &models.OrderCounter{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate checkout tables: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := NewService(
		gormTxRunner{db: db},
		cartpkg.NewRepository(db),
		productsvc.NewRepository(db),
		couponsvc.NewRepository(db),
		ordersvc.NewRepository(db),
		cataloguesvc.NewRepository(db),
		outbox.NewService(outbox.NewRepository(db), logg),
		logg,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedCatalogue(t *testing.T, db *gorm.DB) *models.Catalogue {
	t.Helper()
	catalogue := &models.Catalogue{
		UserID:      uuid.New(),
		Name:        "Riya Cards",
		Slug:        "riya-cards-" + uuid.NewString()[:8],
		IsPublished: true,
	}
	if err := db.Create(catalogue).Error; err != nil {
		t.Fatalf("seed catalogue: %v", err)
	}
	return catalogue
}

func seedProduct(t *testing.T, db *gorm.DB, catalogueID uuid.UUID, priceCents int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		CatalogueID:    catalogueID,
		Name:           "Greeting Card",
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

func seedCartWithItem(t *testing.T, db *gorm.DB, catalogueID uuid.UUID, identity cartpkg.Identity, product *models.Product, qty int) *models.Cart {
	t.Helper()
	cart := &models.Cart{
		CatalogueID: catalogueID,
		UserID:      identity.UserID,
		SessionID:   identity.SessionID,
	}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	addCartItem(t, db, cart, product, qty)
	return cart
}

func addCartItem(t *testing.T, db *gorm.DB, cart *models.Cart, product *models.Product, qty int) {
	t.Helper()
	item := &models.CartItem{
		CartID:      cart.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    qty,
	}
	if product.IsEnquiry {
		item.IsEnquiry = true
	} else {
		price := product.PriceCents
		item.UnitPriceCents = &price
		item.LineSubtotalCents = price * int64(qty)
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
}

func checkoutInput(method enums.PaymentMethod) Input {
	return Input{
		Customer: types.Customer{
			Name:  "Asha",
			Email: "asha@example.com",
		},
		ShippingAddress: types.Address{
			Line1:      "12 Lake Road",
			City:       "Kochi",
			State:      "Kerala",
			PostalCode: "682001",
			Country:    "IN",
		},
		PaymentMethod: method,
	}
}

func TestCheckoutPlacesOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	product := seedProduct(t, db, catalogue.ID, 1000, 5)
	identity := cartpkg.SessionIdentity("sess-place")
	seedCartWithItem(t, db, catalogue.ID, identity, product, 2)

	order, err := svc.Checkout(ctx, catalogue.ID, identity, checkoutInput(enums.PaymentMethodCOD))
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if order.SubtotalCents != 2000 || order.TotalCents != 2000 {
		t.Fatalf("unexpected totals %d/%d", order.SubtotalCents, order.TotalCents)
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("unexpected initial state %s/%s", order.Status, order.PaymentStatus)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order items %+v", order.Items)
	}

	var stocked models.Product
	if err := db.First(&stocked, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if stocked.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", stocked.Stock)
	}
	if stocked.OrdersCount != 1 {
		t.Fatalf("expected one recorded order on the product, got %d", stocked.OrdersCount)
	}

	var itemCount int64
	if err := db.Model(&models.CartItem{}).Count(&itemCount).Error; err != nil {
		t.Fatalf("count cart items: %v", err)
	}
	if itemCount != 0 {
		t.Fatalf("expected cart cleared, found %d items", itemCount)
	}

	var refreshed models.Catalogue
	if err := db.First(&refreshed, "id = ?", catalogue.ID).Error; err != nil {
		t.Fatalf("reload catalogue: %v", err)
	}
	if refreshed.TotalOrders != 1 {
		t.Fatalf("expected total orders 1, got %d", refreshed.TotalOrders)
	}

	var events []models.OutboxEvent
	if err := db.Find(&events).Error; err != nil {
		t.Fatalf("load outbox: %v", err)
	}
	if len(events) != 1 || events[0].EventType != enums.EventOrderPlaced {
		t.Fatalf("unexpected outbox rows %+v", events)
	}
}

func TestCheckoutConsumesCoupon(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	product := seedProduct(t, db, catalogue.ID, 1000, 5)
	identity := cartpkg.SessionIdentity("sess-coupon")
	cart := seedCartWithItem(t, db, catalogue.ID, identity, product, 2)

	limit := 1
	coupon := &models.Coupon{
		CatalogueID:  catalogue.ID,
		Code:         "SAVE10",
		DiscountType: enums.DiscountTypePercentage,
		Value:        10,
		UsageLimit:   &limit,
		IsActive:     true,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	attach := map[string]any{"coupon_id": coupon.ID, "coupon_code": coupon.Code}
	if err := db.Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(attach).Error; err != nil {
		t.Fatalf("attach coupon: %v", err)
	}

	order, err := svc.Checkout(ctx, catalogue.ID, identity, checkoutInput(enums.PaymentMethodCOD))
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if order.DiscountCents != 200 || order.TotalCents != 1800 {
		t.Fatalf("unexpected discount/total %d/%d", order.DiscountCents, order.TotalCents)
	}
	if order.CouponCode == nil || *order.CouponCode != "SAVE10" {
		t.Fatalf("expected coupon code on order, got %v", order.CouponCode)
	}

	var used models.Coupon
	if err := db.First(&used, "id = ?", coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon: %v", err)
	}
	if used.UsedCount != 1 {
		t.Fatalf("expected used count 1, got %d", used.UsedCount)
	}
}

func TestCheckoutOutOfStockRollsBack(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	product := seedProduct(t, db, catalogue.ID, 1000, 1)
	identity := cartpkg.SessionIdentity("sess-oos")
	seedCartWithItem(t, db, catalogue.ID, identity, product, 2)

	_, err := svc.Checkout(ctx, catalogue.ID, identity, checkoutInput(enums.PaymentMethodCOD))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out of stock error, got %v", err)
	}

	var stocked models.Product
	if err := db.First(&stocked, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if stocked.Stock != 1 {
		t.Fatalf("expected stock untouched, got %d", stocked.Stock)
	}

	var orderCount, itemCount, eventCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	db.Model(&models.CartItem{}).Count(&itemCount)
	db.Model(&models.OutboxEvent{}).Count(&eventCount)
	if orderCount != 0 || eventCount != 0 {
		t.Fatalf("expected rollback, got %d orders and %d events", orderCount, eventCount)
	}
	if itemCount != 1 {
		t.Fatalf("expected cart kept, got %d items", itemCount)
	}
}

func TestCheckoutFailsWhenAvailabilityGateClosed(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	product := seedProduct(t, db, catalogue.ID, 1000, 5)
	identity := cartpkg.SessionIdentity("sess-gate")
	seedCartWithItem(t, db, catalogue.ID, identity, product, 1)

	if err := db.Model(product).Update("stock_available", false).Error; err != nil {
		t.Fatalf("close availability gate: %v", err)
	}

	_, err := svc.Checkout(ctx, catalogue.ID, identity, checkoutInput(enums.PaymentMethodCOD))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out of stock despite stock on hand, got %v", err)
	}

	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 0 {
		t.Fatalf("expected no order, got %d", orderCount)
	}
}

func TestCheckoutSecondBuyerFindsStockDepleted(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	product := seedProduct(t, db, catalogue.ID, 1000, 2)

	first := cartpkg.SessionIdentity("sess-first")
	seedCartWithItem(t, db, catalogue.ID, first, product, 2)
	second := cartpkg.SessionIdentity("sess-second")
	seedCartWithItem(t, db, catalogue.ID, second, product, 1)

	if _, err := svc.Checkout(ctx, catalogue.ID, first, checkoutInput(enums.PaymentMethodCOD)); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	// The second buyer added the item while it was in stock; the units are
	// gone by the time they check out.
	_, err := svc.Checkout(ctx, catalogue.ID, second, checkoutInput(enums.PaymentMethodCOD))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out of stock, got %v", err)
	}

	var stocked models.Product
	if err := db.First(&stocked, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if stocked.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", stocked.Stock)
	}
	if stocked.OrdersCount != 1 {
		t.Fatalf("expected one recorded order, got %d", stocked.OrdersCount)
	}

	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 1 {
		t.Fatalf("expected exactly one order, got %d", orderCount)
	}
}

func TestCheckoutExcludesEnquiryLines(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	priced := seedProduct(t, db, catalogue.ID, 1000, 5)
	enquiry := &models.Product{
		CatalogueID:    catalogue.ID,
		Name:           "Custom Portrait",
		IsEnquiry:      true,
		Stock:          5,
		StockAvailable: true,
		IsActive:       true,
	}
	if err := db.Create(enquiry).Error; err != nil {
		t.Fatalf("seed enquiry product: %v", err)
	}

	identity := cartpkg.SessionIdentity("sess-enquiry")
	cart := seedCartWithItem(t, db, catalogue.ID, identity, priced, 2)
	addCartItem(t, db, cart, enquiry, 1)

	order, err := svc.Checkout(ctx, catalogue.ID, identity, checkoutInput(enums.PaymentMethodCOD))
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}

	// Totals cover priced lines only; the enquiry line rides along priceless.
	if order.SubtotalCents != 2000 || order.TotalCents != 2000 {
		t.Fatalf("unexpected totals %d/%d", order.SubtotalCents, order.TotalCents)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected both lines snapshotted, got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.ProductID != enquiry.ID {
			continue
		}
		if item.UnitPriceCents != nil || item.LineSubtotalCents != 0 {
			t.Fatalf("expected priceless enquiry snapshot, got %+v", item)
		}
	}
}

// racedCouponRepo serves coupon reads from before another buyer burned the
// last use, so the conditional usage increment is what catches the race.
type racedCouponRepo struct {
	couponsvc.Repository
}

func (r racedCouponRepo) WithTx(tx *gorm.DB) couponsvc.Repository {
	return racedCouponRepo{Repository: r.Repository.WithTx(tx)}
}

func (r racedCouponRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := r.Repository.FindByID(ctx, id)
	if err == nil && coupon.UsedCount > 0 {
		coupon.UsedCount--
	}
	return coupon, err
}

func TestCheckoutLosingCouponRaceConflicts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := NewService(
		gormTxRunner{db: db},
		cartpkg.NewRepository(db),
		productsvc.NewRepository(db),
		racedCouponRepo{Repository: couponsvc.NewRepository(db)},
		ordersvc.NewRepository(db),
		cataloguesvc.NewRepository(db),
		outbox.NewService(outbox.NewRepository(db), logg),
		logg,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	product := seedProduct(t, db, catalogue.ID, 1000, 5)
	identity := cartpkg.SessionIdentity("sess-burned")
	cart := seedCartWithItem(t, db, catalogue.ID, identity, product, 1)

	limit := 1
	coupon := &models.Coupon{
		CatalogueID:  catalogue.ID,
		Code:         "ONCE",
		DiscountType: enums.DiscountTypeFlat,
		Value:        100,
		UsageLimit:   &limit,
		UsedCount:    1,
		IsActive:     true,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	attach := map[string]any{"coupon_id": coupon.ID, "coupon_code": coupon.Code}
	if err := db.Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(attach).Error; err != nil {
		t.Fatalf("attach coupon: %v", err)
	}

	_, err = svc.Checkout(ctx, catalogue.ID, identity, checkoutInput(enums.PaymentMethodCOD))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for exhausted coupon, got %v", err)
	}

	// The whole checkout rolled back, stock included.
	var stocked models.Product
	if err := db.First(&stocked, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if stocked.Stock != 5 {
		t.Fatalf("expected stock untouched, got %d", stocked.Stock)
	}
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)

	_, err := svc.Checkout(ctx, catalogue.ID, cartpkg.SessionIdentity("sess-empty"), checkoutInput(enums.PaymentMethodCOD))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutRejectsBadInput(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	product := seedProduct(t, db, catalogue.ID, 1000, 5)
	identity := cartpkg.SessionIdentity("sess-input")
	seedCartWithItem(t, db, catalogue.ID, identity, product, 1)

	input := checkoutInput(enums.PaymentMethodCOD)
	input.Customer.Name = ""
	if _, err := svc.Checkout(ctx, catalogue.ID, identity, input); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error, got %v", err)
	}

	input = checkoutInput("wire")
	if _, err := svc.Checkout(ctx, catalogue.ID, identity, input); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for payment method, got %v", err)
	}
}

func TestCheckoutOrderNumbersAreDistinct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	product := seedProduct(t, db, catalogue.ID, 500, 10)

	first := cartpkg.SessionIdentity("sess-a")
	seedCartWithItem(t, db, catalogue.ID, first, product, 1)
	second := cartpkg.SessionIdentity("sess-b")
	seedCartWithItem(t, db, catalogue.ID, second, product, 1)

	orderA, err := svc.Checkout(ctx, catalogue.ID, first, checkoutInput(enums.PaymentMethodOnline))
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	orderB, err := svc.Checkout(ctx, catalogue.ID, second, checkoutInput(enums.PaymentMethodOnline))
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if orderA.OrderNumber == orderB.OrderNumber {
		t.Fatalf("order numbers collided: %s", orderA.OrderNumber)
	}
}
