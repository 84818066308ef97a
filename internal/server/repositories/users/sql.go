package users

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

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, password_hash, is_admin, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.IsAdmin, user.CreatedAt).Scan(&user.ID)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrUsernameTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, is_admin, created_at FROM users
		 WHERE id = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, is_admin, created_at FROM users
		 WHERE username = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *SQLRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) SetAdmin(ctx context.Context, id int64, admin bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_admin = $1 WHERE id = $2`, admin, id)
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

func (r *SQLRepository) ClaimBootstrap(ctx context.Context, userID int64, at time.Time) (bool, error) {
	query := `
		INSERT INTO admin_bootstrap (id, user_id, created_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, userID, at)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}
