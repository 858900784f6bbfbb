package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	cataloguesvc "github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	ordersvc "github.com/itsriyaas/digitalcard-backend/internal/orders"
	"github.com/itsriyaas/digitalcard-backend/pkg/config"
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

type stubGateway struct {
	nextID string
	calls  int
}

func (g *stubGateway) CreateOrder(_ context.Context, input GatewayOrderInput) (*GatewayOrder, error) {
	g.calls++
	return &GatewayOrder{
		ID:          g.nextID,
		AmountCents: input.AmountCents,
		Currency:    input.Currency,
		Status:      "created",
	}, nil
}

type fakeIdemStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{seen: map[string]bool{}}
}

func (f *fakeIdemStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] {
		return "1", nil
	}
	return "", nil
}

func (f *fakeIdemStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeIdemStore) IdempotencyKey(scope, id string) string {
	return "test:idem:" + scope + ":" + id
}

func (f *fakeIdemStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.seen, key)
	}
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Catalogue{}, &models.Order{}, &models.OrderItem{},
		&models.Payment{}, &models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate payment tables: %v", err)
	}
	return db
}

func gatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		KeyID:     "key_test",
		KeySecret: "secret_test",
		BaseURL:   "https://gateway.invalid/v1",
		Currency:  "INR",
	}
}

func newTestService(t *testing.T, db *gorm.DB, gateway Gateway) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := NewService(
		gormTxRunner{db: db},
		NewRepository(db),
		ordersvc.NewRepository(db),
		cataloguesvc.NewRepository(db),
		gateway,
		newFakeIdemStore(),
		outbox.NewService(outbox.NewRepository(db), logg),
		gatewayConfig(),
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

func seedOnlineOrder(t *testing.T, db *gorm.DB, catalogueID uuid.UUID) *models.Order {
	t.Helper()
	order := &models.Order{
		CatalogueID: catalogueID,
		OrderNumber: "ORD-1-" + uuid.NewString()[:8],
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
		SubtotalCents: 2500,
		TotalCents:    2500,
		PaymentMethod: enums.PaymentMethodOnline,
		PaymentStatus: enums.PaymentStatusPending,
		Status:        enums.OrderStatusPending,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestCreatePaymentOpensGatewayOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gateway := &stubGateway{nextID: "gw_order_1"}
	svc := newTestService(t, db, gateway)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	order := seedOnlineOrder(t, db, catalogue.ID)

	intent, err := svc.CreatePayment(ctx, catalogue.ID, order.ID)
	if err != nil {
		t.Fatalf("CreatePayment returned error: %v", err)
	}
	if intent.GatewayOrderID != "gw_order_1" || intent.AmountCents != 2500 {
		t.Fatalf("unexpected intent %+v", intent)
	}
	if intent.GatewayKeyID != "key_test" {
		t.Fatalf("expected public key id on intent, got %q", intent.GatewayKeyID)
	}
	if gateway.calls != 1 {
		t.Fatalf("expected one gateway call, got %d", gateway.calls)
	}

	var payment models.Payment
	if err := db.First(&payment, "gateway_order_id = ?", "gw_order_1").Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Status != enums.PaymentStatusPending || payment.AmountCents != 2500 {
		t.Fatalf("unexpected payment row %+v", payment)
	}
}

func TestCreatePaymentRejectsCashOnDelivery(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &stubGateway{nextID: "gw_order_cod"})
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	order := seedOnlineOrder(t, db, catalogue.ID)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_method", enums.PaymentMethodCOD).Error; err != nil {
		t.Fatalf("update order: %v", err)
	}

	_, err := svc.CreatePayment(ctx, catalogue.ID, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyPaymentSettlesOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gateway := &stubGateway{nextID: "gw_order_2"}
	svc := newTestService(t, db, gateway)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	order := seedOnlineOrder(t, db, catalogue.ID)

	if _, err := svc.CreatePayment(ctx, catalogue.ID, order.ID); err != nil {
		t.Fatalf("CreatePayment returned error: %v", err)
	}

	input := VerifyInput{
		GatewayOrderID:   "gw_order_2",
		GatewayPaymentID: "gw_pay_2",
	}
	input.Signature = ComputeSignature("secret_test", input.GatewayOrderID, input.GatewayPaymentID)

	settled, err := svc.VerifyPayment(ctx, catalogue.ID, input)
	if err != nil {
		t.Fatalf("VerifyPayment returned error: %v", err)
	}
	if settled.PaymentStatus != enums.PaymentStatusCompleted || settled.PaidAt == nil {
		t.Fatalf("expected settled order, got %+v", settled)
	}
	if settled.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", settled.Status)
	}

	// The duplicate callback is absorbed without double booking.
	again, err := svc.VerifyPayment(ctx, catalogue.ID, input)
	if err != nil {
		t.Fatalf("duplicate VerifyPayment returned error: %v", err)
	}
	if again.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected settled order on replay, got %+v", again)
	}

	var refreshed models.Catalogue
	if err := db.First(&refreshed, "id = ?", catalogue.ID).Error; err != nil {
		t.Fatalf("reload catalogue: %v", err)
	}
	if refreshed.TotalRevenueCents != 2500 {
		t.Fatalf("expected revenue booked once, got %d", refreshed.TotalRevenueCents)
	}

	var captured int64
	db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventPaymentCaptured).
		Count(&captured)
	if captured != 1 {
		t.Fatalf("expected one capture event, got %d", captured)
	}
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gateway := &stubGateway{nextID: "gw_order_3"}
	svc := newTestService(t, db, gateway)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	order := seedOnlineOrder(t, db, catalogue.ID)

	if _, err := svc.CreatePayment(ctx, catalogue.ID, order.ID); err != nil {
		t.Fatalf("CreatePayment returned error: %v", err)
	}

	_, err := svc.VerifyPayment(ctx, catalogue.ID, VerifyInput{
		GatewayOrderID:   "gw_order_3",
		GatewayPaymentID: "gw_pay_3",
		Signature:        "forged",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	var payment models.Payment
	if err := db.First(&payment, "gateway_order_id = ?", "gw_order_3").Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", payment.Status)
	}
	if payment.FailureReason == nil || *payment.FailureReason != "Invalid signature" {
		t.Fatalf("expected invalid signature reason, got %v", payment.FailureReason)
	}

	// Only the attempt is marked; the order stays pending for a retry.
	var reloaded models.Order
	if err := db.First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("expected order payment untouched, got %s", reloaded.PaymentStatus)
	}
	if reloaded.Status != enums.OrderStatusPending {
		t.Fatalf("expected order status untouched, got %s", reloaded.Status)
	}
	if reloaded.PaidAt != nil {
		t.Fatal("expected no settlement on forged signature")
	}
}

func TestFailPaymentRecordsReason(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gateway := &stubGateway{nextID: "gw_order_4"}
	svc := newTestService(t, db, gateway)
	ctx := context.Background()
	catalogue := seedCatalogue(t, db)
	order := seedOnlineOrder(t, db, catalogue.ID)

	if _, err := svc.CreatePayment(ctx, catalogue.ID, order.ID); err != nil {
		t.Fatalf("CreatePayment returned error: %v", err)
	}

	reason := "card declined"
	if err := svc.FailPayment(ctx, catalogue.ID, FailInput{
		GatewayOrderID: "gw_order_4",
		Reason:         &reason,
	}); err != nil {
		t.Fatalf("FailPayment returned error: %v", err)
	}

	var payment models.Payment
	if err := db.First(&payment, "gateway_order_id = ?", "gw_order_4").Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", payment.Status)
	}
	if payment.FailureReason == nil || *payment.FailureReason != reason {
		t.Fatalf("expected failure reason recorded, got %v", payment.FailureReason)
	}

	var failed int64
	db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventPaymentFailed).
		Count(&failed)
	if failed != 1 {
		t.Fatalf("expected one failure event, got %d", failed)
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	t.Parallel()

	sig := ComputeSignature("secret", "order_1", "pay_1")
	if !VerifySignature("secret", "order_1", "pay_1", sig) {
		t.Fatal("expected signature to verify")
	}
	if VerifySignature("secret", "order_1", "pay_2", sig) {
		t.Fatal("expected signature mismatch for different payment")
	}
	if VerifySignature("other", "order_1", "pay_1", sig) {
		t.Fatal("expected signature mismatch for different secret")
	}
}
