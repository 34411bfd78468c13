package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuthAttempt is the slog-side view of an authentication decision.
type AuthAttempt struct {
	Action    string
	Email     string
	IPAddress string
	OK        bool
	Note      string
}

// AuditLogger emits structured audit lines for auth decisions. It is the
// always-available half of the dual-write audit trail; database persistence
// is layered on top by the audit service.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs a single authentication decision. Failed attempts are
// logged at Warn so they stand out in aggregated logs.
func (al *AuditLogger) LogAuthAttempt(attempt AuthAttempt) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("action", attempt.Action),
		slog.Bool("ok", attempt.OK),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if attempt.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(attempt.Email)))
	}
	if attempt.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", attempt.IPAddress))
	}
	if attempt.Note != "" {
		attrs = append(attrs, slog.String("note", attempt.Note))
	}

	if attempt.OK {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}
