package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stlhq/syncvault/internal/database"
	"github.com/stlhq/syncvault/internal/models"
)

// AuthEventRepository appends authentication decisions to the audit trail.
// Events are never updated or deleted by this subsystem.
type AuthEventRepository struct {
	pool *pgxpool.Pool
}

// NewAuthEventRepository creates a new AuthEventRepository
func NewAuthEventRepository(db *database.DB) *AuthEventRepository {
	return &AuthEventRepository{pool: db.Pool}
}

// Append inserts a single auth event.
func (r *AuthEventRepository) Append(ctx context.Context, event *models.AuthEvent) error {
	query := `
		INSERT INTO auth_events (id, email, ip_address, action, ok, note)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		uuid.New().String(),
		event.Email,
		event.IPAddress,
		event.Action,
		event.OK,
		event.Note,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

// ListByEmail returns the most recent events for an identity, newest first.
// Forensic review helper; not on any request path.
func (r *AuthEventRepository) ListByEmail(ctx context.Context, email string, limit int) ([]*models.AuthEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, email, ip_address, action, ok, note, created_at
		FROM auth_events
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth events: %w", err)
	}

	return scanAuthEventRows(rows)
}

func scanAuthEventRows(rows pgx.Rows) ([]*models.AuthEvent, error) {
	defer rows.Close()

	events := make([]*models.AuthEvent, 0)

	for rows.Next() {
		var event models.AuthEvent
		err := rows.Scan(
			&event.ID, &event.Email, &event.IPAddress,
			&event.Action, &event.OK, &event.Note, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auth event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auth event rows: %w", err)
	}

	return events, nil
}
