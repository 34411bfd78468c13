package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/stlhq/syncvault/internal/auth"
	"github.com/stlhq/syncvault/internal/handlers"
	"github.com/stlhq/syncvault/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	syncHandler *handlers.SyncHandler,
	decoyHandler *handlers.DecoyHandler,
	appHandler *handlers.AppHandler,
	tokenManager *auth.TokenManager,
	accounts auth.AccountFetcher,
	cookieName string,
) {
	// HTTP-level request limiter on auth endpoints; the per-identity attempt
	// window with lockout lives inside the login flow
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/register", authHandler.Register)
	router.Post("/auth/logout", authHandler.Logout)

	// Honeytrap: looks like an unrouted path, records every hit
	router.Get("/decoy", decoyHandler.Serve)
	router.Post("/decoy", decoyHandler.Serve)

	// Browser routes. /app validates its own token because failures redirect
	// instead of returning JSON
	router.Get("/app", appHandler.ServeApp)
	router.Get("/login-page", appHandler.ServeLoginPage)

	// Protected API routes. Query-parameter tokens are not accepted here.
	router.Group(func(r chi.Router) {
		r.Use(auth.SessionGuard(tokenManager, accounts, auth.GuardConfig{CookieName: cookieName}))

		r.Post("/api/sync/upload", syncHandler.Upload)
		r.Get("/api/sync/download", syncHandler.Download)
	})
}
