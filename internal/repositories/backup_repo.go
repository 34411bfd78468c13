package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stlhq/syncvault/internal/database"
	"github.com/stlhq/syncvault/internal/models"
)

// BackupRepository is the keyed document store for client state blobs. The
// blob is opaque JSON owned by the client application; it is stored and
// returned verbatim.
type BackupRepository struct {
	pool *pgxpool.Pool
}

// NewBackupRepository creates a new BackupRepository
func NewBackupRepository(db *database.DB) *BackupRepository {
	return &BackupRepository{pool: db.Pool}
}

// Put upserts the blob for a user, overwriting any previous snapshot.
func (r *BackupRepository) Put(ctx context.Context, userID, userEmail string, blob []byte) error {
	query := `
		INSERT INTO financial_backups (user_id, user_email, app_data, last_updated)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET app_data = EXCLUDED.app_data, user_email = EXCLUDED.user_email, last_updated = now()
	`

	if _, err := r.pool.Exec(ctx, query, userID, userEmail, blob); err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

// Get returns the stored blob for a user. A user with no prior upload gets
// models.ErrNotFound; callers translate that to an empty object, not an
// error.
func (r *BackupRepository) Get(ctx context.Context, userID string) ([]byte, error) {
	query := `SELECT app_data FROM financial_backups WHERE user_id = $1`

	var blob []byte
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&blob); err != nil {
		mapped := database.MapPostgresError(err)
		if errors.Is(mapped, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, mapped
	}

	return blob, nil
}
