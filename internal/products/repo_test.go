package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, catalogueID uuid.UUID, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		CatalogueID:    catalogueID,
		Name:           "Ceramic Mug",
		PriceCents:     1500,
		Stock:          stock,
		StockAvailable: true,
		IsActive:       true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestDecrementStockGuard(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	product := seedProduct(t, db, uuid.New(), 5)

	ok, err := repo.DecrementStock(ctx, product.ID, 3)
	if err != nil || !ok {
		t.Fatalf("expected decrement to succeed, got ok=%v err=%v", ok, err)
	}

	ok, err = repo.DecrementStock(ctx, product.ID, 3)
	if err != nil {
		t.Fatalf("decrement returned error: %v", err)
	}
	if ok {
		t.Fatal("expected decrement beyond stock to be refused")
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 2 {
		t.Fatalf("expected stock 2 after refused decrement, got %d", reloaded.Stock)
	}
	if reloaded.OrdersCount != 1 {
		t.Fatalf("expected one recorded order, got %d", reloaded.OrdersCount)
	}
}

func TestDecrementStockHonoursAvailabilityGate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	product := seedProduct(t, db, uuid.New(), 5)
	if err := db.Model(product).Update("stock_available", false).Error; err != nil {
		t.Fatalf("close availability gate: %v", err)
	}

	ok, err := repo.DecrementStock(ctx, product.ID, 1)
	if err != nil {
		t.Fatalf("decrement returned error: %v", err)
	}
	if ok {
		t.Fatal("expected decrement to be refused while the gate is closed")
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 5 || reloaded.OrdersCount != 0 {
		t.Fatalf("expected untouched product, got stock %d orders %d", reloaded.Stock, reloaded.OrdersCount)
	}
}

func TestDecrementStockRejectsNonPositiveQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	product := seedProduct(t, db, uuid.New(), 5)

	if _, err := repo.DecrementStock(context.Background(), product.ID, 0); err == nil {
		t.Fatal("expected zero quantity to be rejected")
	}
}

func TestRestoreStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	product := seedProduct(t, db, uuid.New(), 1)

	if err := repo.RestoreStock(ctx, product.ID, 4); err != nil {
		t.Fatalf("restore stock: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 5 {
		t.Fatalf("expected stock 5, got %d", reloaded.Stock)
	}
}

func TestListByCataloguePagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	catalogueID := uuid.New()

	for i := 0; i < 5; i++ {
		seedProduct(t, db, catalogueID, 1)
	}
	inactive := seedProduct(t, db, catalogueID, 1)
	if err := db.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product: %v", err)
	}

	page, err := repo.ListByCatalogue(ctx, catalogueID, pagination.Params{Limit: 3}, true)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(page.Products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(page.Products))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor on first page")
	}

	rest, err := repo.ListByCatalogue(ctx, catalogueID, pagination.Params{Limit: 3, Cursor: page.NextCursor}, true)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest.Products) != 2 {
		t.Fatalf("expected 2 products on second page, got %d", len(rest.Products))
	}
	if rest.NextCursor != "" {
		t.Fatalf("expected no cursor on final page, got %q", rest.NextCursor)
	}
}
