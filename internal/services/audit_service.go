package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/stlhq/syncvault/internal/models"
	pkglogger "github.com/stlhq/syncvault/pkg/logger"
)

// AuthEventRepository defines the append-only persistence for auth events
type AuthEventRepository interface {
	Append(ctx context.Context, event *models.AuthEvent) error
}

// AuditService records authentication decisions with a dual-write pattern:
// an immediate slog line plus a database row. Persistence failures are
// swallowed; audit logging must never block or fail an auth decision.
type AuditService struct {
	repo   AuthEventRepository
	logger *slog.Logger
	audit  *pkglogger.AuditLogger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuthEventRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger,
		audit:  pkglogger.NewAuditLogger(logger),
	}
}

// Record appends one auth event. Fire-and-forget: errors are logged and
// dropped, and the insert runs under its own short timeout so a slow
// database cannot stall the login path.
func (s *AuditService) Record(ctx context.Context, email, ip, action string, ok bool, note string) {
	attempt := pkglogger.AuthAttempt{
		Action:    action,
		Email:     email,
		IPAddress: ip,
		OK:        ok,
		Note:      note,
	}
	s.audit.LogAuthAttempt(attempt)

	event := &models.AuthEvent{
		IPAddress: ip,
		Action:    action,
		OK:        ok,
	}
	if email != "" {
		event.Email = &email
	}
	if note != "" {
		event.Note = &note
	}

	appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := s.repo.Append(appendCtx, event); err != nil {
		s.logger.Error("failed to persist auth event",
			slog.String("action", action),
			slog.Any("error", err))
	}
}
