package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
	"github.com/itsriyaas/digitalcard-backend/pkg/pagination"
)

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the product service with its dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("products repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, catalogueID uuid.UUID, input CreateProductInput) (*models.Product, error) {
	if !input.IsEnquiry && input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price is required for purchasable products")
	}
	if input.CompareAtPriceCents != nil && *input.CompareAtPriceCents <= input.PriceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "compare-at price must exceed price")
	}

	available := true
	if input.StockAvailable != nil {
		available = *input.StockAvailable
	}
	product := &models.Product{
		CatalogueID:         catalogueID,
		CategoryID:          input.CategoryID,
		Name:                input.Name,
		Description:         input.Description,
		PriceCents:          input.PriceCents,
		CompareAtPriceCents: input.CompareAtPriceCents,
		Stock:               input.Stock,
		StockAvailable:      available,
		IsEnquiry:           input.IsEnquiry,
		Images:              input.Images,
		IsActive:            true,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, catalogueID uuid.UUID, params pagination.Params, onlyActive bool) (*ProductList, error) {
	list, err := s.repo.ListByCatalogue(ctx, catalogueID, params, onlyActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, catalogueID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.findOwned(ctx, catalogueID, productID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.PriceCents != nil {
		updates["price_cents"] = *input.PriceCents
	}
	if input.CompareAtPriceCents != nil {
		price := product.PriceCents
		if input.PriceCents != nil {
			price = *input.PriceCents
		}
		if *input.CompareAtPriceCents <= price {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "compare-at price must exceed price")
		}
		updates["compare_at_price_cents"] = *input.CompareAtPriceCents
	}
	if input.Stock != nil {
		updates["stock"] = *input.Stock
	}
	if input.StockAvailable != nil {
		updates["stock_available"] = *input.StockAvailable
	}
	if input.Images != nil {
		updates["images"] = input.Images
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.repo.Update(ctx, productID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	return s.repo.FindByID(ctx, productID)
}

func (s *service) Delete(ctx context.Context, catalogueID, productID uuid.UUID) error {
	if _, err := s.findOwned(ctx, catalogueID, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

func (s *service) findOwned(ctx context.Context, catalogueID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.CatalogueID != catalogueID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another catalogue")
	}
	return product, nil
}
