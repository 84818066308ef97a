package invites

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

func (r *SQLRepository) Create(ctx context.Context, invite *models.InviteCode) (*models.InviteCode, error) {
	query := `
		INSERT INTO invite_codes (code, used, created_by, created_at)
		VALUES ($1, FALSE, $2, $3)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, invite.Code, invite.CreatedBy, invite.CreatedAt).Scan(&invite.ID); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: invite code exists", common.ErrorConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	invite.Used = false
	return invite, nil
}

// Consume relies on the conditional UPDATE being atomic: the row lock
// (postgres) or the single writer (sqlite) lets exactly one transaction see
// used = FALSE.
func (r *SQLRepository) Consume(ctx context.Context, code string, userID int64, at time.Time) error {
	query := `
		UPDATE invite_codes
		SET used = TRUE, used_by = $2, used_at = $3
		WHERE code = $1 AND used = FALSE
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, code, userID, at).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrInviteInvalid
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const selectInvite = `SELECT id, code, used, used_by, used_at, created_by, created_at FROM invite_codes`

func (r *SQLRepository) GetByCode(ctx context.Context, code string) (*models.InviteCode, error) {
	invite, err := scanInvite(r.db.QueryRowContext(ctx, selectInvite+` WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return invite, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*models.InviteCode, error) {
	rows, err := r.db.QueryContext(ctx, selectInvite+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.InviteCode
	for rows.Next() {
		invite, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invite_codes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvite(s scanner) (*models.InviteCode, error) {
	var (
		invite    models.InviteCode
		usedBy    sql.NullInt64
		usedAt    sql.NullTime
		createdBy sql.NullInt64
	)
	if err := s.Scan(&invite.ID, &invite.Code, &invite.Used, &usedBy, &usedAt, &createdBy, &invite.CreatedAt); err != nil {
		return nil, err
	}
	if usedBy.Valid {
		invite.UsedBy = &usedBy.Int64
	}
	if usedAt.Valid {
		invite.UsedAt = &usedAt.Time
	}
	if createdBy.Valid {
		invite.CreatedBy = &createdBy.Int64
	}
	return &invite, nil
}
