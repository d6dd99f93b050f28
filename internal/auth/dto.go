package auth

import "github.com/gosbiromania/storefront-backend/internal/customers"

// Credentials is the phone/password pair sent to register and login.
type Credentials struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges an expired access token and its refresh token for
// a new pair. The access token may instead arrive as the bearer token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is a freshly minted access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse contains the tokens and account produced by a successful
// login or registration.
type LoginResponse struct {
	TokenPair
	Customer customers.CustomerDTO `json:"customer"`
}
