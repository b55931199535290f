package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	SessionID  string
	CustomerID *string
	Email      *string
	Guest      bool
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to storefront clients.
type AccessTokenClaims struct {
	SessionID  string  `json:"session_id"`
	CustomerID *string `json:"customer_id,omitempty"`
	Email      *string `json:"email,omitempty"`
	Guest      bool    `json:"guest"`
	jwt.RegisteredClaims
}
