// Package users declares the account repository.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type Repository interface {
	// Create inserts user and sets its ID. A duplicate username yields
	// common.ErrUsernameTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// GetByUsername matches the username exactly (case-sensitive).
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	SetAdmin(ctx context.Context, id int64, admin bool) error
	// ClaimBootstrap records userID as the bootstrap administrator. It
	// reports false when the claim was already taken.
	ClaimBootstrap(ctx context.Context, userID int64, at time.Time) (bool, error)
}
