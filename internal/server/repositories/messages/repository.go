// Package messages stores chat history.
package messages

import (
	"context"

	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	// ListRecent returns up to limit latest messages in chronological order.
	ListRecent(ctx context.Context, limit int) ([]*models.Message, error)
}
