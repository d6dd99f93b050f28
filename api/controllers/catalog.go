package controllers

import (
	"net/http"

	"github.com/gosbiromania/storefront-backend/api/responses"
	"github.com/gosbiromania/storefront-backend/api/validators"
	"github.com/gosbiromania/storefront-backend/internal/catalog"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
)

func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// CatalogProducts lists active products, priced for the caller when their
// account allows it. ?category= narrows the list; ALL or empty means all.
func CatalogProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		customerID, ok := requireCustomer(w, r, logg)
		if !ok {
			return
		}

		category := validators.SanitizeString(r.URL.Query().Get("category"), 64)
		page, err := svc.PricedCatalog(r.Context(), customerID, category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
