package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/stlhq/syncvault/internal/models"
)

// BackupStore is the keyed document store behind the sync operations
type BackupStore interface {
	Put(ctx context.Context, userID, userEmail string, blob []byte) error
	Get(ctx context.Context, userID string) ([]byte, error)
}

// SyncService stores and returns the client's application-state blob. The
// blob is opaque: it is validated to be a non-empty JSON object and stored
// verbatim, never interpreted.
type SyncService struct {
	store  BackupStore
	logger *slog.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(store BackupStore, logger *slog.Logger) *SyncService {
	return &SyncService{
		store:  store,
		logger: logger,
	}
}

var emptyObject = []byte("{}")

// Upload stores the blob for the account, replacing any previous snapshot.
func (s *SyncService) Upload(ctx context.Context, account *models.Account, blob []byte) error {
	if len(bytes.TrimSpace(blob)) == 0 {
		return models.ErrBadRequest
	}
	if !json.Valid(blob) {
		return models.ErrBadRequest
	}

	if err := s.store.Put(ctx, account.ID, account.Email, blob); err != nil {
		s.logger.Error("failed to store backup blob",
			slog.String("user_id", account.ID),
			slog.Any("error", err))
		return models.ErrStorageUnavailable
	}

	return nil
}

// Download returns the last uploaded blob, or an empty JSON object when the
// account has never uploaded. Absence is not an error.
func (s *SyncService) Download(ctx context.Context, account *models.Account) ([]byte, error) {
	blob, err := s.store.Get(ctx, account.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return emptyObject, nil
		}
		s.logger.Error("failed to load backup blob",
			slog.String("user_id", account.ID),
			slog.Any("error", err))
		return nil, models.ErrStorageUnavailable
	}

	return blob, nil
}
