package handlers

import (
	"context"
	"net/http"

	"github.com/stlhq/syncvault/internal/models"
	pkghttp "github.com/stlhq/syncvault/pkg/http"
)

// AuditRecorderInterface is the slice of the audit service the handlers need
type AuditRecorderInterface interface {
	Record(ctx context.Context, email, ip, action string, ok bool, note string)
}

// DecoyHandler answers a honeytrap path. Nothing real lives behind it: every
// request gets a 404, and the access is recorded as a suspicious probe.
type DecoyHandler struct {
	audit    AuditRecorderInterface
	ipConfig *pkghttp.IPConfig
}

// NewDecoyHandler creates a new DecoyHandler
func NewDecoyHandler(audit AuditRecorderInterface, ipConfig *pkghttp.IPConfig) *DecoyHandler {
	return &DecoyHandler{
		audit:    audit,
		ipConfig: ipConfig,
	}
}

// Serve records the probe and returns a plain 404, indistinguishable from a
// route that does not exist.
func (h *DecoyHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	h.audit.Record(r.Context(), "", ipAddress, models.AuthActionDecoy, false, models.AuthNoteDecoyTriggered)

	pkghttp.WriteNotFound(w, "Not found")
}
