package catalogues

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/itsriyaas/digitalcard-backend/pkg/db"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

// visitWindow is how long a visitor counts as the same visit.
const visitWindow = 30 * time.Minute

type service struct {
	repo    Repository
	deduper VisitorDeduper
	logg    *logger.Logger
}

// NewService wires the catalogue service with its dependencies. The deduper
// is optional; without it every public read counts as a visit.
func NewService(repo Repository, deduper VisitorDeduper, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("catalogues repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repo, deduper: deduper, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateCatalogueInput) (*models.Catalogue, error) {
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(input.Name)
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalogue name yields an empty slug")
	}

	catalogue := &models.Catalogue{
		UserID:      userID,
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		LogoURL:     input.LogoURL,
		WhatsApp:    input.WhatsApp,
		IsPublished: true,
	}

	created, err := s.repo.Create(ctx, catalogue)
	if err != nil && dbpkg.IsUniqueViolation(err, "") {
		catalogue.Slug = slugWithSuffix(slug)
		created, err = s.repo.Create(ctx, catalogue)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating catalogue")
	}
	return created, nil
}

func (s *service) GetOwned(ctx context.Context, userID, catalogueID uuid.UUID) (*models.Catalogue, error) {
	catalogue, err := s.findByID(ctx, catalogueID)
	if err != nil {
		return nil, err
	}
	if catalogue.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "catalogue belongs to another user")
	}
	return catalogue, nil
}

func (s *service) ListOwned(ctx context.Context, userID uuid.UUID) ([]models.Catalogue, error) {
	catalogues, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing catalogues")
	}
	return catalogues, nil
}

func (s *service) Update(ctx context.Context, userID, catalogueID uuid.UUID, input UpdateCatalogueInput) (*models.Catalogue, error) {
	if _, err := s.GetOwned(ctx, userID, catalogueID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.LogoURL != nil {
		updates["logo_url"] = *input.LogoURL
	}
	if input.WhatsApp != nil {
		updates["whatsapp"] = *input.WhatsApp
	}
	if input.IsPublished != nil {
		updates["is_published"] = *input.IsPublished
	}
	if len(updates) == 0 {
		return s.findByID(ctx, catalogueID)
	}

	if err := s.repo.Update(ctx, catalogueID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating catalogue")
	}
	return s.findByID(ctx, catalogueID)
}

// GetPublic resolves the storefront by slug and tracks the visit. Counter
// failures are logged but never block the read.
func (s *service) GetPublic(ctx context.Context, slug string, visitorID string) (*models.Catalogue, error) {
	catalogue, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalogue not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading catalogue")
	}
	if !catalogue.IsPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalogue not found")
	}

	s.trackVisit(ctx, catalogue.ID, visitorID)
	return catalogue, nil
}

// ResolveSlug resolves a published storefront without counting a visit. Cart
// and checkout requests go through here so they do not inflate analytics.
func (s *service) ResolveSlug(ctx context.Context, slug string) (*models.Catalogue, error) {
	catalogue, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalogue not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading catalogue")
	}
	if !catalogue.IsPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalogue not found")
	}
	return catalogue, nil
}

func (s *service) CreateCategory(ctx context.Context, catalogueID uuid.UUID, input CreateCategoryInput) (*models.Category, error) {
	category := &models.Category{
		CatalogueID: catalogueID,
		Name:        input.Name,
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
	}
	return created, nil
}

func (s *service) ListCategories(ctx context.Context, catalogueID uuid.UUID, onlyActive bool) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx, catalogueID, onlyActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}
	return categories, nil
}

func (s *service) trackVisit(ctx context.Context, catalogueID uuid.UUID, visitorID string) {
	if visitorID != "" && s.deduper != nil {
		key := s.deduper.VisitorKey(catalogueID.String(), visitorID)
		fresh, err := s.deduper.SetNX(ctx, key, 1, visitWindow)
		if err != nil {
			s.logg.Warn(ctx, "visit dedupe unavailable")
		} else if !fresh {
			return
		}
	}
	if err := s.repo.IncrementVisits(ctx, catalogueID); err != nil {
		s.logg.Error(ctx, "incrementing catalogue visits", err)
	}
}

func (s *service) findByID(ctx context.Context, catalogueID uuid.UUID) (*models.Catalogue, error) {
	catalogue, err := s.repo.FindByID(ctx, catalogueID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalogue not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading catalogue")
	}
	return catalogue, nil
}
