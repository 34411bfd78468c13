package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims embedded in a signed session token.
// Expiry is mandatory; a token without it never validates.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
