// Package files stores metadata of uploaded blobs. The bytes themselves live
// in a storage.Store under File.Filename.
package files

import (
	"context"

	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	Get(ctx context.Context, id int64) (*models.File, error)
	// List returns all files, newest first.
	List(ctx context.Context) ([]*models.File, error)
	// Delete removes the row; a missing row yields common.ErrorNotFound.
	Delete(ctx context.Context, id int64) error
}
