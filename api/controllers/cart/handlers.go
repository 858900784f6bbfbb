package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itsriyaas/digitalcard-backend/api/middleware"
	"github.com/itsriyaas/digitalcard-backend/api/responses"
	"github.com/itsriyaas/digitalcard-backend/api/validators"
	cartsvc "github.com/itsriyaas/digitalcard-backend/internal/cart"
	cataloguesvc "github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

// Fetch returns the buyer's cart for the storefront.
func Fetch(catalogues cataloguesvc.Service, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogue, identity, err := storefrontContext(r, catalogues)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Get(r.Context(), catalogue.ID, identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// AddItem puts a product into the buyer's cart.
func AddItem(catalogues cataloguesvc.Service, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogue, identity, err := storefrontContext(r, catalogues)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartsvc.AddItemInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddItem(r.Context(), catalogue.ID, identity, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// SetItemQuantity updates a line's quantity; zero removes the line.
func SetItemQuantity(catalogues cataloguesvc.Service, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogue, identity, err := storefrontContext(r, catalogues)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.PathUUID(chi.URLParam(r, "productID"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.SetItemQuantity(r.Context(), catalogue.ID, identity, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// RemoveItem drops a line from the buyer's cart.
func RemoveItem(catalogues cataloguesvc.Service, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogue, identity, err := storefrontContext(r, catalogues)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.PathUUID(chi.URLParam(r, "productID"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveItem(r.Context(), catalogue.ID, identity, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

type couponRequest struct {
	Code string `json:"code" validate:"required,min=3,max=32"`
}

// ApplyCoupon attaches a coupon code to the buyer's cart.
func ApplyCoupon(catalogues cataloguesvc.Service, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogue, identity, err := storefrontContext(r, catalogues)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.ApplyCoupon(r.Context(), catalogue.ID, identity, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// RemoveCoupon detaches the coupon from the buyer's cart.
func RemoveCoupon(catalogues cataloguesvc.Service, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogue, identity, err := storefrontContext(r, catalogues)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveCoupon(r.Context(), catalogue.ID, identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// Clear empties the buyer's cart.
func Clear(catalogues cataloguesvc.Service, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalogue, identity, err := storefrontContext(r, catalogues)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Clear(r.Context(), catalogue.ID, identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// BuyerIdentityFromContext rebuilds the cart identity seeded by middleware.
func BuyerIdentityFromContext(r *http.Request) (cartsvc.Identity, error) {
	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return cartsvc.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
		}
		return cartsvc.UserIdentity(userID), nil
	}
	if sessionID := middleware.SessionIDFromContext(r.Context()); sessionID != "" {
		return cartsvc.SessionIdentity(sessionID), nil
	}
	return cartsvc.Identity{}, pkgerrors.New(pkgerrors.CodeValidation, "session id or credentials required")
}

type storefront struct {
	ID uuid.UUID
}

func storefrontContext(r *http.Request, catalogues cataloguesvc.Service) (storefront, cartsvc.Identity, error) {
	catalogue, err := catalogues.ResolveSlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		return storefront{}, cartsvc.Identity{}, err
	}
	identity, err := BuyerIdentityFromContext(r)
	if err != nil {
		return storefront{}, cartsvc.Identity{}, err
	}
	return storefront{ID: catalogue.ID}, identity, nil
}
