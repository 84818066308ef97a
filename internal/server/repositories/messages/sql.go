package messages

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (content, user_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, msg.Content, msg.UserID, msg.CreatedAt).Scan(&msg.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

func (r *SQLRepository) ListRecent(ctx context.Context, limit int) ([]*models.Message, error) {
	query := `
		SELECT m.id, m.content, m.user_id, u.username, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.user_id
		ORDER BY m.id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Content, &m.UserID, &m.Username, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	slices.Reverse(result)
	return result, nil
}
