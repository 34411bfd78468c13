package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/stlhq/syncvault/internal/models"
	pkgauth "github.com/stlhq/syncvault/pkg/auth"
	pkglogger "github.com/stlhq/syncvault/pkg/logger"
)

// AccountRepository defines the persistence operations the credential store needs
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Upsert(ctx context.Context, email, passwordHash string) (*models.Account, error)
}

// CredentialService owns account records. The trust boundary is the fixed
// allow-list given to Reconcile at startup; no other code path creates or
// changes accounts.
type CredentialService struct {
	repo   AccountRepository
	logger *slog.Logger
}

// NewCredentialService creates a new CredentialService
func NewCredentialService(repo AccountRepository, logger *slog.Logger) *CredentialService {
	return &CredentialService{
		repo:   repo,
		logger: logger,
	}
}

// Reconcile hashes every allow-listed secret and upserts the account.
// Persistence errors are logged but do not abort the remaining entries or
// fail startup; an entry that failed to reconcile simply cannot log in
// until the next restart.
func (s *CredentialService) Reconcile(ctx context.Context, allowlist map[string]string) {
	for email, plaintext := range allowlist {
		hash, err := pkgauth.HashPassword(plaintext)
		if err != nil {
			s.logger.Error("failed to hash allow-list secret",
				slog.String("email", pkglogger.SanitizedEmail(email)),
				slog.Any("error", err))
			continue
		}

		upsertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err = s.repo.Upsert(upsertCtx, email, hash)
		cancel()
		if err != nil {
			s.logger.Error("failed to reconcile allow-list account",
				slog.String("email", pkglogger.SanitizedEmail(email)),
				slog.Any("error", err))
			continue
		}
	}

	s.logger.Info("allow-list accounts reconciled", slog.Int("count", len(allowlist)))
}

// FindByEmail looks up an account by its email.
func (s *CredentialService) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.repo.FindByEmail(ctx, email)
}

// FindByID looks up an account by its ID.
func (s *CredentialService) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return s.repo.FindByID(ctx, id)
}

// Verify checks a plaintext secret against an account's stored hash.
func (s *CredentialService) Verify(account *models.Account, password string) bool {
	return pkgauth.ComparePassword(account.PasswordHash, password) == nil
}
