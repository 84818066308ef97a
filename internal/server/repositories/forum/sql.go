package forum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *SQLRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, description FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

const selectThread = `
	SELECT t.id, t.title, t.category_id, t.user_id, t.created_at, u.username,
	       (SELECT COUNT(*) FROM posts p WHERE p.thread_id = t.id)
	FROM threads t
	JOIN users u ON u.id = t.user_id
`

func scanThread(row interface{ Scan(...any) error }) (*models.ThreadSummary, error) {
	var t models.ThreadSummary
	err := row.Scan(&t.ID, &t.Title, &t.CategoryID, &t.UserID, &t.CreatedAt, &t.Author, &t.PostCount)
	return &t, err
}

func (r *SQLRepository) ListThreads(ctx context.Context, categoryID int64) ([]*models.ThreadSummary, error) {
	rows, err := r.db.QueryContext(ctx, selectThread+` WHERE t.category_id = $1 ORDER BY t.created_at DESC, t.id DESC`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ThreadSummary
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) GetThread(ctx context.Context, id int64) (*models.ThreadSummary, error) {
	t, err := scanThread(r.db.QueryRowContext(ctx, selectThread+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *SQLRepository) CreateThread(ctx context.Context, thread *models.Thread) (*models.Thread, error) {
	query := `
		INSERT INTO threads (title, category_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, thread.Title, thread.CategoryID, thread.UserID, thread.CreatedAt).Scan(&thread.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return thread, nil
}

func (r *SQLRepository) ListPosts(ctx context.Context, threadID int64) ([]*models.PostView, error) {
	query := `
		SELECT p.id, p.content, p.thread_id, p.user_id, p.created_at, u.username
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.thread_id = $1
		ORDER BY p.created_at, p.id
	`
	rows, err := r.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.PostView
	for rows.Next() {
		var p models.PostView
		if err := rows.Scan(&p.ID, &p.Content, &p.ThreadID, &p.UserID, &p.CreatedAt, &p.Author); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	query := `
		INSERT INTO posts (content, thread_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, post.Content, post.ThreadID, post.UserID, post.CreatedAt).Scan(&post.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}
