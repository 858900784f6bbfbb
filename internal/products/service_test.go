package products

import (
	"context"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(newTestDB(t)), logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateRequiresPriceUnlessEnquiry(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), CreateProductInput{Name: "Art Print", Stock: 3})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for priceless product, got %v", err)
	}

	created, err := svc.Create(ctx, uuid.New(), CreateProductInput{Name: "Custom Portrait", IsEnquiry: true, Stock: 3})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !created.IsEnquiry {
		t.Fatal("expected enquiry flag to persist")
	}
	if !created.StockAvailable {
		t.Fatal("expected availability gate open by default")
	}
}

func TestUpdateTogglesAvailabilityGate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	catalogueID := uuid.New()
	product := seedProduct(t, db, catalogueID, 5)

	closed := false
	updated, err := svc.Update(ctx, catalogueID, product.ID, UpdateProductInput{StockAvailable: &closed})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.StockAvailable {
		t.Fatal("expected availability gate closed")
	}
	if updated.Stock != 5 {
		t.Fatalf("expected stock untouched, got %d", updated.Stock)
	}
}
