// Package events stores shared calendar entries.
package events

import (
	"context"

	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	// List returns every event ordered by start time.
	List(ctx context.Context) ([]*models.Event, error)
}
