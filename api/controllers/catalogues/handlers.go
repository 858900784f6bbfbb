package catalogues

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itsriyaas/digitalcard-backend/api/middleware"
	"github.com/itsriyaas/digitalcard-backend/api/responses"
	"github.com/itsriyaas/digitalcard-backend/api/validators"
	cataloguesvc "github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

const visitorIDHeader = "X-Visitor-Id"

// Create opens a new catalogue for the authenticated merchant.
func Create(svc cataloguesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cataloguesvc.CreateCatalogueInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		catalogue, err := svc.Create(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalogue)
	}
}

// List returns the merchant's catalogues.
func List(svc cataloguesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		catalogues, err := svc.ListOwned(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalogues)
	}
}

// Get returns one owned catalogue with its analytics counters.
func Get(svc cataloguesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		catalogueID, err := validators.PathUUID(chi.URLParam(r, "catalogueID"), "catalogue id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		catalogue, err := svc.GetOwned(r.Context(), userID, catalogueID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalogue)
	}
}

// Update mutates an owned catalogue.
func Update(svc cataloguesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		catalogueID, err := validators.PathUUID(chi.URLParam(r, "catalogueID"), "catalogue id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cataloguesvc.UpdateCatalogueInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		catalogue, err := svc.Update(r.Context(), userID, catalogueID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalogue)
	}
}

// PublicGet serves the storefront by slug and counts the visit.
func PublicGet(svc cataloguesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		visitorID := strings.TrimSpace(r.Header.Get(visitorIDHeader))
		if visitorID == "" {
			visitorID = strings.TrimSpace(r.Header.Get("X-Session-Id"))
		}

		catalogue, err := svc.GetPublic(r.Context(), slug, visitorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalogue)
	}
}

// CreateCategory adds a product grouping to the owned catalogue.
func CreateCategory(svc cataloguesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogueID, err := catalogueIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cataloguesvc.CreateCategoryInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), catalogueID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// ListCategories returns the owned catalogue's categories, inactive included.
func ListCategories(svc cataloguesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogueID, err := catalogueIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categories, err := svc.ListCategories(r.Context(), catalogueID, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// PublicCategories serves the active categories of a published storefront.
func PublicCategories(svc cataloguesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogue, err := svc.ResolveSlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categories, err := svc.ListCategories(r.Context(), catalogue.ID, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func catalogueIDFromContext(r *http.Request) (uuid.UUID, error) {
	catalogueID, err := uuid.Parse(middleware.CatalogueIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "catalogue context missing")
	}
	return catalogueID, nil
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return userID, nil
}
