package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stlhq/syncvault/internal/database"
	"github.com/stlhq/syncvault/internal/models"
)

// AccountRepository handles account data access. Accounts are only written
// by startup reconciliation; there is no delete or user-facing update path.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (single row or result set)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account

	err := scanner.Scan(
		&account.ID, &account.Email, &account.PasswordHash,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &account, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM accounts WHERE id = $1
	`

	return scanAccountRow(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM accounts WHERE email = $1
	`

	return scanAccountRow(r.pool.QueryRow(ctx, query, email))
}

// Upsert inserts the account or, if the email already exists, overwrites its
// password hash and updated_at. Used exclusively by allow-list
// reconciliation.
func (r *AccountRepository) Upsert(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	now := time.Now()
	query := `
		INSERT INTO accounts (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at
		RETURNING id, email, password_hash, created_at, updated_at
	`

	account, err := scanAccountRow(r.pool.QueryRow(ctx, query, uuid.New().String(), email, passwordHash, now))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return account, nil
}
