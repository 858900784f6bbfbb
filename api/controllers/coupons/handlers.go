package coupons

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itsriyaas/digitalcard-backend/api/middleware"
	"github.com/itsriyaas/digitalcard-backend/api/responses"
	"github.com/itsriyaas/digitalcard-backend/api/validators"
	cataloguesvc "github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	couponsvc "github.com/itsriyaas/digitalcard-backend/internal/coupons"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

// Create adds a coupon to the owned catalogue.
func Create(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogueID, err := catalogueIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload couponsvc.CreateCouponInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Create(r.Context(), catalogueID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

// List returns the catalogue's coupons.
func List(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogueID, err := catalogueIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupons, err := svc.List(r.Context(), catalogueID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupons)
	}
}

// Update mutates a coupon in the owned catalogue.
func Update(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogueID, err := catalogueIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		couponID, err := validators.PathUUID(chi.URLParam(r, "couponID"), "coupon id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload couponsvc.UpdateCouponInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Update(r.Context(), catalogueID, couponID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

// Delete removes a coupon from the owned catalogue.
func Delete(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogueID, err := catalogueIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		couponID, err := validators.PathUUID(chi.URLParam(r, "couponID"), "coupon id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), catalogueID, couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type validateRequest struct {
	Code          string `json:"code" validate:"required,min=3,max=32"`
	SubtotalCents int64  `json:"subtotal_cents" validate:"gte=0"`
}

// PublicValidate checks a coupon against a cart subtotal for a storefront.
func PublicValidate(catalogues cataloguesvc.Service, svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogue, err := catalogues.ResolveSlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload validateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), catalogue.ID, payload.Code, payload.SubtotalCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func catalogueIDFromContext(r *http.Request) (uuid.UUID, error) {
	catalogueID, err := uuid.Parse(middleware.CatalogueIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "catalogue context missing")
	}
	return catalogueID, nil
}
