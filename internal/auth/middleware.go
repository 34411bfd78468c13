package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/stlhq/syncvault/internal/models"
	pkghttp "github.com/stlhq/syncvault/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// AccountContextKey is the key for storing the authenticated account in context
	AccountContextKey contextKey = "account"

	// TokenHeader is the explicit header carrier for session tokens
	TokenHeader = "X-Access-Token"
)

// AccountFetcher re-fetches the account behind a validated token. Looking
// the account up on every guarded request catches accounts removed after
// the token was issued.
type AccountFetcher interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

// GuardConfig controls where the session guard looks for a token.
type GuardConfig struct {
	CookieName string
	// AllowQueryParam additionally accepts the token as a ?token= query
	// parameter. Only the browser render route enables this; API routes
	// must not, to keep tokens out of access logs and referrers.
	AllowQueryParam bool
}

// SessionGuard validates the session token and injects the resolved account
// into the request context. Any failure is terminal: the wrapped handler is
// never invoked.
func SessionGuard(tm *TokenManager, accounts AccountFetcher, config GuardConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r, config)
			if tokenString == "" {
				pkghttp.WriteUnauthorizedCode(w, "token_missing", "Session token required")
				return
			}

			claims, err := tm.Validate(tokenString)
			if err != nil {
				if errors.Is(err, models.ErrTokenExpired) {
					pkghttp.WriteUnauthorizedCode(w, "token_expired", "Session expired, please log in again")
					return
				}
				pkghttp.WriteUnauthorizedCode(w, "token_invalid", "Invalid session token")
				return
			}

			account, err := accounts.FindByID(r.Context(), claims.UserID)
			if err != nil {
				// A missing account and a storage failure both deny access;
				// auth decisions fail closed.
				pkghttp.WriteUnauthorizedCode(w, "token_invalid", "Invalid session token")
				return
			}

			ctx := context.WithValue(r.Context(), AccountContextKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken pulls the session token from the accepted carriers in order:
// explicit header, session cookie, then (if enabled) the query parameter.
func ExtractToken(r *http.Request, config GuardConfig) string {
	if token := r.Header.Get(TokenHeader); token != "" {
		return token
	}

	if token, err := GetSessionCookie(r, config.CookieName); err == nil && token != "" {
		return token
	}

	if config.AllowQueryParam {
		if token := r.URL.Query().Get("token"); token != "" {
			return token
		}
	}

	return ""
}

// AccountFromContext extracts the authenticated account from the request context
func AccountFromContext(r *http.Request) *models.Account {
	account, ok := r.Context().Value(AccountContextKey).(*models.Account)
	if !ok {
		return nil
	}
	return account
}
