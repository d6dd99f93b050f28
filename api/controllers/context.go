package controllers

import (
	"net/http"

	"github.com/gosbiromania/storefront-backend/api/middleware"
	"github.com/gosbiromania/storefront-backend/api/responses"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
)

// requireCustomer writes a 401 and returns false when the request carries no
// authenticated customer.
func requireCustomer(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	customerID := middleware.CustomerIDFromContext(r.Context())
	if customerID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
		return "", false
	}
	return customerID, true
}
