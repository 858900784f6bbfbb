package coupons

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:coupons_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Coupon{}); err != nil {
		t.Fatalf("migrate coupons: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateNormalizesCode(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()

	created, err := svc.Create(ctx, catalogueID, CreateCouponInput{
		Code:         "  save10 ",
		DiscountType: enums.DiscountTypePercentage,
		Value:        10,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Code != "SAVE10" {
		t.Fatalf("expected normalized code SAVE10, got %q", created.Code)
	}
}

func TestCreateRejectsPercentageOverHundred(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	_, err := svc.Create(context.Background(), uuid.New(), CreateCouponInput{
		Code:         "TOOMUCH",
		DiscountType: enums.DiscountTypePercentage,
		Value:        150,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateComputesDiscount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	catalogueID := uuid.New()

	if _, err := svc.Create(ctx, catalogueID, CreateCouponInput{
		Code:         "FLAT500",
		DiscountType: enums.DiscountTypeFlat,
		Value:        500,
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	result, err := svc.Validate(ctx, catalogueID, "flat500", 2000)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if result.DiscountCents != 500 || result.TotalCents != 1500 {
		t.Fatalf("unexpected validation result %+v", result)
	}
}

func TestValidateUnknownCode(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	_, err := svc.Validate(context.Background(), uuid.New(), "NOPE", 1000)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIncrementUsageRespectsLimit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	limit := 1
	coupon := &models.Coupon{
		CatalogueID:  uuid.New(),
		Code:         "ONCE",
		DiscountType: enums.DiscountTypeFlat,
		Value:        100,
		UsageLimit:   &limit,
		IsActive:     true,
	}
	if _, err := repo.Create(ctx, coupon); err != nil {
		t.Fatalf("seed coupon: %v", err)
	}

	ok, err := repo.IncrementUsage(ctx, coupon.ID)
	if err != nil || !ok {
		t.Fatalf("first increment should succeed, got ok=%v err=%v", ok, err)
	}
	ok, err = repo.IncrementUsage(ctx, coupon.ID)
	if err != nil {
		t.Fatalf("second increment returned error: %v", err)
	}
	if ok {
		t.Fatal("second increment should be refused at the limit")
	}

}

func TestUpdateOwnershipGuard(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	created, err := svc.Create(ctx, uuid.New(), CreateCouponInput{
		Code:         "MINE",
		DiscountType: enums.DiscountTypeFlat,
		Value:        100,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	otherCatalogue := uuid.New()
	active := false
	_, err = svc.Update(ctx, otherCatalogue, created.ID, UpdateCouponInput{IsActive: &active})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
