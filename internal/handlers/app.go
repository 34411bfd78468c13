package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stlhq/syncvault/internal/auth"
	"github.com/stlhq/syncvault/internal/models"
)

//go:embed web/app.html
var webAssets embed.FS

// AppHandler serves the browser-facing single page app. This is the one
// route that accepts the session token as a query parameter, so a login
// response can hand the browser a direct link into the app.
type AppHandler struct {
	tokens   *auth.TokenManager
	accounts auth.AccountFetcher
	guard    auth.GuardConfig
	page     []byte
}

// NewAppHandler creates a new AppHandler with the embedded page loaded
func NewAppHandler(tokens *auth.TokenManager, accounts auth.AccountFetcher, cookieName string) (*AppHandler, error) {
	page, err := webAssets.ReadFile("web/app.html")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded app page: %w", err)
	}

	return &AppHandler{
		tokens:   tokens,
		accounts: accounts,
		guard:    auth.GuardConfig{CookieName: cookieName, AllowQueryParam: true},
		page:     page,
	}, nil
}

// sessionBootstrap is serialized into the page so the client script starts
// with a known identity and token
type sessionBootstrap struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// ServeApp renders the app for an authenticated session. Browser-facing
// failures redirect to the login page instead of returning JSON errors.
func (h *AppHandler) ServeApp(w http.ResponseWriter, r *http.Request) {
	token := auth.ExtractToken(r, h.guard)
	if token == "" {
		http.Redirect(w, r, "/login-page", http.StatusFound)
		return
	}

	claims, err := h.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, models.ErrTokenExpired) {
			http.Redirect(w, r, "/login-page?reason=expired", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/login-page?reason=invalid", http.StatusFound)
		return
	}

	account, err := h.accounts.FindByID(r.Context(), claims.UserID)
	if err != nil {
		http.Redirect(w, r, "/login-page?reason=invalid", http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.injectSession(token, account.Email))
}

// ServeLoginPage serves the page without a session. The client script shows
// the login form when no bootstrap is present.
func (h *AppHandler) ServeLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.page)
}

// injectSession places a bootstrap script before </head>. json.Marshal
// escapes angle brackets, so the token and email cannot break out of the
// script element.
func (h *AppHandler) injectSession(token, email string) []byte {
	payload, err := json.Marshal(sessionBootstrap{Token: token, Email: email})
	if err != nil {
		return h.page
	}

	script := fmt.Sprintf("<script>window.__SESSION__ = %s;</script>", payload)
	return bytes.Replace(h.page, []byte("</head>"), []byte(script+"\n</head>"), 1)
}
