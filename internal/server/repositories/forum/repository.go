// Package forum stores categories, threads and posts.
package forum

import (
	"context"

	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type Repository interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	// ListThreads returns the threads of a category, newest first.
	ListThreads(ctx context.Context, categoryID int64) ([]*models.ThreadSummary, error)
	CreateThread(ctx context.Context, thread *models.Thread) (*models.Thread, error)
	GetThread(ctx context.Context, id int64) (*models.ThreadSummary, error)
	// ListPosts returns the posts of a thread, oldest first.
	ListPosts(ctx context.Context, threadID int64) ([]*models.PostView, error)
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
}
