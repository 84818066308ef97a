package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

// SQLRepository implements file metadata storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts a file row. A duplicate storage name is reported as
// common.ErrorConflict.
func (r *SQLRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (filename, original_name, size, user_id, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		file.Filename, file.OriginalName, file.Size, file.UserID, file.UploadedAt).Scan(&file.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: file name in use", common.ErrorConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

const selectFile = `
	SELECT f.id, f.filename, f.original_name, f.size, f.user_id, u.username, f.uploaded_at
	FROM files f
	JOIN users u ON u.id = f.user_id
`

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	var f models.File
	err := row.Scan(&f.ID, &f.Filename, &f.OriginalName, &f.Size, &f.UserID, &f.Username, &f.UploadedAt)
	return &f, err
}

// Get returns a file by id or common.ErrorNotFound.
func (r *SQLRepository) Get(ctx context.Context, id int64) (*models.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, selectFile+` WHERE f.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// List returns all files, newest upload first.
func (r *SQLRepository) List(ctx context.Context) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, selectFile+` ORDER BY f.uploaded_at DESC, f.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		item, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the file row.
func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
