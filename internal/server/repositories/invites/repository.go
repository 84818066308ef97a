// Package invites declares the repository for single-use registration codes.
package invites

import (
	"context"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type Repository interface {
	// Create stores a fresh, unused code. A duplicate code yields common.ErrorConflict.
	Create(ctx context.Context, invite *models.InviteCode) (*models.InviteCode, error)
	// Consume flips an unused code to used for userID. Only one caller can
	// ever succeed for a given code; the others get common.ErrInviteInvalid.
	Consume(ctx context.Context, code string, userID int64, at time.Time) error
	GetByCode(ctx context.Context, code string) (*models.InviteCode, error)
	// List returns all codes, newest first.
	List(ctx context.Context) ([]*models.InviteCode, error)
	Count(ctx context.Context) (int64, error)
}
