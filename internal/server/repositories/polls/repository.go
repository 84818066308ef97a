// Package polls stores polls and one vote per (poll, user).
package polls

import (
	"context"

	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, poll *models.Poll) (*models.Poll, error)
	Get(ctx context.Context, id int64) (*models.Poll, error)
	// List returns all polls, newest first.
	List(ctx context.Context) ([]*models.Poll, error)
	SetActive(ctx context.Context, id int64, active bool) error
	// UpsertVote inserts the vote or replaces the option of the user's
	// existing vote on the same poll.
	UpsertVote(ctx context.Context, vote *models.Vote) error
	// ListVotes returns all votes for the given polls.
	ListVotes(ctx context.Context, pollIDs []int64) ([]*models.Vote, error)
}
