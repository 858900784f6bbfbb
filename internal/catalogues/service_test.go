package catalogues

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

type stubDeduper struct {
	fresh bool
	calls int
}

func (s *stubDeduper) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	s.calls++
	return s.fresh, nil
}

func (s *stubDeduper) VisitorKey(catalogueID, visitorID string) string {
	return "dc:visitor:" + catalogueID + ":" + visitorID
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalogues_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Catalogue{}, &models.Category{}); err != nil {
		t.Fatalf("migrate catalogues: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, deduper VisitorDeduper) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), deduper, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Riya's Art Studio", "riya-s-art-studio"},
		{"  Cafe   24/7  ", "cafe-24-7"},
		{"!!!", ""},
		{"Plain", "plain"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateGeneratesSlugAndResolvesCollision(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, uuid.New(), CreateCatalogueInput{Name: "My Cards"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if first.Slug != "my-cards" {
		t.Fatalf("expected slug my-cards, got %q", first.Slug)
	}

	second, err := svc.Create(ctx, uuid.New(), CreateCatalogueInput{Name: "My Cards"})
	if err != nil {
		t.Fatalf("Create with colliding name returned error: %v", err)
	}
	if second.Slug == first.Slug {
		t.Fatal("expected collision to produce a distinct slug")
	}
}

func TestGetPublicCountsDedupedVisits(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deduper := &stubDeduper{fresh: true}
	svc := newTestService(t, db, deduper)
	ctx := context.Background()

	created, err := svc.Create(ctx, uuid.New(), CreateCatalogueInput{Name: "Visits"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.GetPublic(ctx, created.Slug, "visitor-1"); err != nil {
		t.Fatalf("GetPublic returned error: %v", err)
	}

	deduper.fresh = false
	if _, err := svc.GetPublic(ctx, created.Slug, "visitor-1"); err != nil {
		t.Fatalf("GetPublic returned error: %v", err)
	}

	var reloaded models.Catalogue
	if err := db.First(&reloaded, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("reload catalogue: %v", err)
	}
	if reloaded.TotalVisits != 1 {
		t.Fatalf("expected 1 visit after dedupe, got %d", reloaded.TotalVisits)
	}
	if deduper.calls != 2 {
		t.Fatalf("expected 2 dedupe checks, got %d", deduper.calls)
	}
}

func TestGetPublicHidesUnpublished(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	ctx := context.Background()
	userID := uuid.New()

	created, err := svc.Create(ctx, userID, CreateCatalogueInput{Name: "Hidden"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	published := false
	if _, err := svc.Update(ctx, userID, created.ID, UpdateCatalogueInput{IsPublished: &published}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	_, err = svc.GetPublic(ctx, created.Slug, "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unpublished catalogue, got %v", err)
	}
}

func TestGetOwnedForbidden(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, uuid.New(), CreateCatalogueInput{Name: "Owned"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err = svc.GetOwned(ctx, uuid.New(), created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCategoriesPublicListHidesInactive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, uuid.New(), CreateCatalogueInput{Name: "Shop"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.CreateCategory(ctx, created.ID, CreateCategoryInput{Name: "Cards", SortOrder: 1}); err != nil {
		t.Fatalf("CreateCategory returned error: %v", err)
	}
	hidden, err := svc.CreateCategory(ctx, created.ID, CreateCategoryInput{Name: "Archive", SortOrder: 2})
	if err != nil {
		t.Fatalf("CreateCategory returned error: %v", err)
	}
	if err := db.Model(&models.Category{}).Where("id = ?", hidden.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate category: %v", err)
	}

	all, err := svc.ListCategories(ctx, created.ID, false)
	if err != nil {
		t.Fatalf("ListCategories returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(all))
	}

	active, err := svc.ListCategories(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("ListCategories returned error: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Cards" {
		t.Fatalf("unexpected active categories %+v", active)
	}
}
