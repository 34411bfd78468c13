package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stlhq/syncvault/internal/models"
)

// TokenManager issues and validates signed session tokens. Tokens are
// stateless and self-verifying: there is no server-side session table and no
// revocation list, so a leaked token stays valid until its embedded expiry.
// That trade-off is deliberate.
type TokenManager struct {
	secret string
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: secret,
		expiry: expiry,
		now:    time.Now,
	}
}

// WithClock replaces the manager's clock. Test hook.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// Issue creates a signed session token for the account. Expiry is always
// set; a token without one never validates.
func (tm *TokenManager) Issue(userID, email string) (string, error) {
	now := tm.now()
	claims := &models.SessionClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a session token and returns its claims. Expired tokens
// return models.ErrTokenExpired; every other decode or signature failure is
// normalized to models.ErrTokenInvalid so callers never see raw parse
// errors.
func (tm *TokenManager) Validate(tokenString string) (*models.SessionClaims, error) {
	if tokenString == "" {
		return nil, models.ErrTokenMissing
	}

	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	}, jwt.WithTimeFunc(tm.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenInvalid
	}

	if !token.Valid || claims.UserID == "" {
		return nil, models.ErrTokenInvalid
	}

	return claims, nil
}
