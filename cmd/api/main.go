package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stlhq/syncvault/internal/auth"
	"github.com/stlhq/syncvault/internal/config"
	"github.com/stlhq/syncvault/internal/database"
	"github.com/stlhq/syncvault/internal/handlers"
	middlewareCustom "github.com/stlhq/syncvault/internal/middleware"
	"github.com/stlhq/syncvault/internal/repositories"
	"github.com/stlhq/syncvault/internal/routes"
	"github.com/stlhq/syncvault/internal/services"
	"github.com/stlhq/syncvault/internal/throttle"
	pkghttp "github.com/stlhq/syncvault/pkg/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	authEventRepo := repositories.NewAuthEventRepository(db)
	backupRepo := repositories.NewBackupRepository(db)

	// Reconcile the allow-list into the credential store before serving
	credentialService := services.NewCredentialService(accountRepo, logger)
	reconcileCtx, reconcileCancel := context.WithTimeout(context.Background(), 30*time.Second)
	credentialService.Reconcile(reconcileCtx, cfg.Auth.AllowedAccounts)
	reconcileCancel()

	// Token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionExpiry)

	// Attempt window and lockout state, process-scoped, reset on restart
	rateLimiter := throttle.NewRateLimiter(cfg.Auth.RateLimitWindow, cfg.Auth.RateLimitMax)
	lockouts := throttle.NewLockoutTable(cfg.Auth.LockoutDuration)

	// Initialize services
	auditService := services.NewAuditService(authEventRepo, logger)
	loginService := services.NewLoginService(
		credentialService,
		tokenManager,
		rateLimiter,
		lockouts,
		auditService,
		cfg.Auth.AllowedAccounts,
		logger,
	)
	syncService := services.NewSyncService(backupRepo, logger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	cookieConfig := auth.CookieConfig{
		Name:   cfg.Auth.SessionCookie,
		Secure: cfg.Server.Env == "production",
	}

	authHandler := handlers.NewAuthHandler(loginService, ipConfig, cookieConfig, cfg.Auth.SessionExpiry)
	syncHandler := handlers.NewSyncHandler(syncService)
	decoyHandler := handlers.NewDecoyHandler(auditService, ipConfig)
	appHandler, err := handlers.NewAppHandler(tokenManager, accountRepo, cfg.Auth.SessionCookie)
	if err != nil {
		logger.Error("failed to initialize app handler", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env)
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, syncHandler, decoyHandler, appHandler, tokenManager, accountRepo, cfg.Auth.SessionCookie)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
