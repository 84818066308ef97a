package habits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	query := `
		INSERT INTO habits (name, frequency, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, habit.Name, habit.Frequency, habit.UserID, habit.CreatedAt).Scan(&habit.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return habit, nil
}

func (r *SQLRepository) Get(ctx context.Context, id int64) (*models.Habit, error) {
	var h models.Habit
	err := r.db.QueryRowContext(ctx, `SELECT id, name, frequency, user_id, created_at FROM habits WHERE id = $1`, id).
		Scan(&h.ID, &h.Name, &h.Frequency, &h.UserID, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &h, nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Habit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, frequency, user_id, created_at FROM habits WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Habit
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.Name, &h.Frequency, &h.UserID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) GetLog(ctx context.Context, habitID int64, day time.Time) (*models.HabitLog, error) {
	var l models.HabitLog
	err := r.db.QueryRowContext(ctx,
		`SELECT id, habit_id, date, completed FROM habit_logs WHERE habit_id = $1 AND date = $2`, habitID, day).
		Scan(&l.ID, &l.HabitID, &l.Date, &l.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &l, nil
}

func (r *SQLRepository) CreateLog(ctx context.Context, log *models.HabitLog) (*models.HabitLog, error) {
	query := `
		INSERT INTO habit_logs (habit_id, date, completed)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, log.HabitID, log.Date, log.Completed).Scan(&log.ID); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: habit already logged for the day", common.ErrorConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return log, nil
}

func (r *SQLRepository) DeleteLog(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM habit_logs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) DoneOn(ctx context.Context, userID int64, day time.Time) (map[int64]bool, error) {
	query := `
		SELECT l.habit_id
		FROM habit_logs l
		JOIN habits h ON h.id = l.habit_id
		WHERE h.user_id = $1 AND l.date = $2 AND l.completed = TRUE
	`
	rows, err := r.db.QueryContext(ctx, query, userID, day)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	done := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		done[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return done, nil
}
