package polls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

// SQLRepository keeps poll options as a JSON array in a text column.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, poll *models.Poll) (*models.Poll, error) {
	options, err := json.Marshal(poll.Options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	query := `
		INSERT INTO polls (question, options, creator_id, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = r.db.QueryRowContext(ctx, query, poll.Question, string(options), poll.CreatorID, poll.Active, poll.CreatedAt).Scan(&poll.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return poll, nil
}

const selectPoll = `SELECT id, question, options, creator_id, active, created_at FROM polls`

func scanPoll(row interface{ Scan(...any) error }) (*models.Poll, error) {
	var (
		p       models.Poll
		options string
	)
	if err := row.Scan(&p.ID, &p.Question, &options, &p.CreatorID, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(options), &p.Options); err != nil {
		return nil, fmt.Errorf("decode options of poll %d: %w", p.ID, err)
	}
	return &p, nil
}

func (r *SQLRepository) Get(ctx context.Context, id int64) (*models.Poll, error) {
	p, err := scanPoll(r.db.QueryRowContext(ctx, selectPoll+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*models.Poll, error) {
	rows, err := r.db.QueryContext(ctx, selectPoll+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE polls SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) UpsertVote(ctx context.Context, vote *models.Vote) error {
	query := `
		INSERT INTO votes (poll_id, user_id, option_index)
		VALUES ($1, $2, $3)
		ON CONFLICT (poll_id, user_id)
		DO UPDATE SET option_index = EXCLUDED.option_index
	`
	if _, err := r.db.ExecContext(ctx, query, vote.PollID, vote.UserID, vote.OptionIndex); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListVotes(ctx context.Context, pollIDs []int64) ([]*models.Vote, error) {
	if len(pollIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(pollIDs))
	args := make([]any, len(pollIDs))
	for i, id := range pollIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT id, poll_id, user_id, option_index FROM votes WHERE poll_id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Vote
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.PollID, &v.UserID, &v.OptionIndex); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
