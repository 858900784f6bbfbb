package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itsriyaas/digitalcard-backend/api/responses"
	cataloguesvc "github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
)

// CatalogueOwner verifies the authenticated user owns the catalogue named in
// the path and seeds the catalogue id into the request context.
func CatalogueOwner(svc cataloguesvc.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := uuid.Parse(UserIDFromContext(r.Context()))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			catalogueID, err := uuid.Parse(chi.URLParam(r, "catalogueID"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid catalogue id"))
				return
			}

			if _, err := svc.GetOwned(r.Context(), userID, catalogueID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxCatalogueID, catalogueID.String())
			if logg != nil {
				ctx = logg.WithCatalogueID(ctx, catalogueID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
