package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/stlhq/syncvault/internal/auth"
	"github.com/stlhq/syncvault/internal/models"
	pkghttp "github.com/stlhq/syncvault/pkg/http"
)

// maxBlobBytes caps the uploaded snapshot size
const maxBlobBytes = 5 << 20

// SyncServiceInterface defines the interface for blob storage operations
type SyncServiceInterface interface {
	Upload(ctx context.Context, account *models.Account, blob []byte) error
	Download(ctx context.Context, account *models.Account) ([]byte, error)
}

// SyncHandler handles backup upload/download HTTP requests
type SyncHandler struct {
	service SyncServiceInterface
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncServiceInterface) *SyncHandler {
	return &SyncHandler{service: service}
}

// DownloadResponse wraps the stored blob
type DownloadResponse struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Upload stores the client's application-state blob verbatim
// @Summary Upload backup
// @Accept json
// @Produce json
// @Success 200
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /api/sync/upload [post]
func (h *SyncHandler) Upload(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r)
	if account == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBlobBytes))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Unable to read request body")
		return
	}

	if err := h.service.Upload(r.Context(), account, blob); err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Request body must be a non-empty JSON document")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to store backup")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"message":"Backup saved"}`))
}

// Download returns the last uploaded blob, or an empty object when the
// account has never uploaded
// @Summary Download backup
// @Produce json
// @Success 200 {object} DownloadResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /api/sync/download [get]
func (h *SyncHandler) Download(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r)
	if account == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	blob, err := h.service.Download(r.Context(), account)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to load backup")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(DownloadResponse{
		Message: "Backup loaded",
		Data:    json.RawMessage(blob),
	})
}
