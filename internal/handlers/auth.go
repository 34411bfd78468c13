package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stlhq/syncvault/internal/auth"
	"github.com/stlhq/syncvault/internal/models"
	"github.com/stlhq/syncvault/internal/services"
	pkghttp "github.com/stlhq/syncvault/pkg/http"
)

// LoginServiceInterface defines the interface for the login decision flow
type LoginServiceInterface interface {
	Login(ctx context.Context, email, password, ip string) (*services.LoginResult, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service    LoginServiceInterface
	ipConfig   *pkghttp.IPConfig
	cookie     auth.CookieConfig
	sessionTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service LoginServiceInterface, ipConfig *pkghttp.IPConfig, cookie auth.CookieConfig, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:    service,
		ipConfig:   ipConfig,
		cookie:     cookie,
		sessionTTL: sessionTTL,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Email   string `json:"email"`
}

// Login handles user login
// @Summary User login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} LoginResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 403 {object} pkghttp.ErrorResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	result, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrLocked),
			errors.Is(err, models.ErrRateLimited):
			pkghttp.WriteTooManyRequests(w, "Too many failed login attempts. Please try again later.")
		case errors.Is(err, models.ErrEmailNotAllowed):
			pkghttp.WriteForbidden(w, "This email is not authorized to log in")
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteUnauthorized(w, "Invalid email or password")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, result.Token, h.sessionTTL, h.cookie)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(LoginResponse{
		Message: "Login successful",
		Token:   result.Token,
		Email:   result.Account.Email,
	})
}

// Register always refuses. Accounts exist only through the startup
// allow-list; there is no self-service path.
// @Summary User registration (disabled)
// @Produce json
// @Failure 403 {object} pkghttp.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteForbidden(w, "Registration is disabled")
}

// Logout clears the session cookie. Tokens are stateless and stay valid
// until expiry; this only removes the browser's copy.
// @Summary User logout
// @Produce json
// @Success 200
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookie)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"message":"Logged out"}`))
}
