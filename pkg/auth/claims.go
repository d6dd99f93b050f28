package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gosbiromania/storefront-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	CustomerID uuid.UUID
	Role       enums.CustomerRole
	JTI        string
}

// AccessTokenClaims is the typed JWT issued to clients. Approval status is
// not carried; it is read from the database on each request.
type AccessTokenClaims struct {
	CustomerID uuid.UUID          `json:"customer_id"`
	Role       enums.CustomerRole `json:"role"`
	jwt.RegisteredClaims
}

var errMalformedClaims = errors.New("malformed access token claims")

// Validate is invoked by the jwt parser after the standard claim checks.
func (c AccessTokenClaims) Validate() error {
	if c.CustomerID == uuid.Nil || c.Subject != c.CustomerID.String() {
		return errMalformedClaims
	}
	if !c.Role.IsValid() || c.ID == "" {
		return errMalformedClaims
	}
	return nil
}
