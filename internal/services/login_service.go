package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/stlhq/syncvault/internal/models"
	"github.com/stlhq/syncvault/internal/throttle"
)

// CredentialVerifier is the slice of CredentialService the login flow needs
type CredentialVerifier interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Verify(account *models.Account, password string) bool
}

// AuditRecorder records auth decisions without ever failing the caller
type AuditRecorder interface {
	Record(ctx context.Context, email, ip, action string, ok bool, note string)
}

// TokenIssuer mints session tokens for authenticated accounts
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// LoginService runs the login decision flow. The check order is fixed:
// lockout, then rate limit, then allow-list membership, then password
// verification. Blocked or unknown identities short-circuit before any
// bcrypt work, so neither timing nor status codes reveal whether a locked
// identity is on the allow-list.
type LoginService struct {
	creds   CredentialVerifier
	tokens  TokenIssuer
	rate    *throttle.RateLimiter
	locks   *throttle.LockoutTable
	audit   AuditRecorder
	allowed map[string]struct{}
	logger  *slog.Logger
}

// NewLoginService creates a new LoginService. The allow-list here is the
// set of identities permitted to authenticate; its secrets live only in the
// credential store as hashes.
func NewLoginService(
	creds CredentialVerifier,
	tokens TokenIssuer,
	rate *throttle.RateLimiter,
	locks *throttle.LockoutTable,
	audit AuditRecorder,
	allowlist map[string]string,
	logger *slog.Logger,
) *LoginService {
	allowed := make(map[string]struct{}, len(allowlist))
	for email := range allowlist {
		allowed[email] = struct{}{}
	}

	return &LoginService{
		creds:   creds,
		tokens:  tokens,
		rate:    rate,
		locks:   locks,
		audit:   audit,
		allowed: allowed,
		logger:  logger,
	}
}

// LoginResult is the outcome of a successful login
type LoginResult struct {
	Token   string
	Account *models.Account
}

// Login evaluates one login attempt. Every terminal branch records exactly
// one audit event. An active lock rejects the attempt even when the
// credentials are correct; the lock runs its full duration.
func (s *LoginService) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	key := throttle.Key(models.AuthActionLogin, ip, email)

	if s.locks.IsLocked(key) {
		s.audit.Record(ctx, email, ip, models.AuthActionLogin, false, models.AuthNoteLocked)
		return nil, models.ErrLocked
	}

	if !s.rate.Allow(key) {
		s.locks.Lock(key)
		s.audit.Record(ctx, email, ip, models.AuthActionLogin, false, models.AuthNoteRateLimited)
		return nil, models.ErrRateLimited
	}

	if _, ok := s.allowed[email]; !ok {
		s.audit.Record(ctx, email, ip, models.AuthActionLogin, false, models.AuthNoteEmailNotAllowed)
		return nil, models.ErrEmailNotAllowed
	}

	account, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		// Missing account and storage failure both fail closed as a
		// credential mismatch; "allowed but maybe valid" is never an answer.
		s.logger.Warn("credential lookup failed during login", slog.Any("error", err))
		s.audit.Record(ctx, email, ip, models.AuthActionLogin, false, models.AuthNoteBadCredentials)
		return nil, models.ErrInvalidCredentials
	}

	if !s.creds.Verify(account, password) {
		s.audit.Record(ctx, email, ip, models.AuthActionLogin, false, models.AuthNoteBadCredentials)
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		s.logger.Error("failed to issue session token",
			slog.String("user_id", account.ID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Record(ctx, email, ip, models.AuthActionLogin, true, "")
	s.logger.Info("user logged in", slog.String("user_id", account.ID))

	return &LoginResult{Token: token, Account: account}, nil
}
