// Package sessions declares the server-side repository contract for login
// sessions. A session row is the source of truth for whether a cookie is
// still valid; deleting the row logs the browser out.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

// Repository defines operations for issuing, retrieving and revoking sessions.
type Repository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *models.Session) error

	// Get looks up a session by id. Implementations return
	// common.ErrorNotFound when the session is absent.
	Get(ctx context.Context, id string) (*models.Session, error)

	// Delete removes a session by id. Deleting a non-existent session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteForUser revokes every session of userID.
	DeleteForUser(ctx context.Context, userID int64) error
}
