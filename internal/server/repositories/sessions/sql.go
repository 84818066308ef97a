package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

// SQLRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts a new session row.
func (r *SQLRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.ExpiresAt, s.CreatedAt, s.UserAgent, s.IPAddress); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the session row for id.
// If not found, it returns common.ErrorNotFound.
func (r *SQLRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, user_id, expires_at, created_at, user_agent, ip_address
		FROM sessions
		WHERE id = $1
	`
	s := &models.Session{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.UserAgent, &s.IPAddress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Delete removes a session by id.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM sessions
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteForUser removes every session of userID.
func (r *SQLRepository) DeleteForUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
