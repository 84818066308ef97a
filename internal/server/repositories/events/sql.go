package events

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	query := `
		INSERT INTO events (title, start_at, end_at, type, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var end sql.NullTime
	if event.End != nil {
		end = sql.NullTime{Time: *event.End, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query, event.Title, event.Start, end, event.Type, event.UserID).Scan(&event.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return event, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, start_at, end_at, type, user_id FROM events ORDER BY start_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Event
	for rows.Next() {
		var (
			e   models.Event
			end sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Start, &end, &e.Type, &e.UserID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if end.Valid {
			e.End = &end.Time
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
