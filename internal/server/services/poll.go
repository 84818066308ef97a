package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
)

const (
	minPollOptions = 2
	maxPollOptions = 20
	maxQuestionLen = 200
)

// PollService runs polls. Each user holds at most one vote per poll;
// voting again replaces the chosen option.
type PollService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewPollService(db *sql.DB, m repomanager.RepositoryManager) *PollService {
	return &PollService{db: db, repomanager: m, now: time.Now}
}

// Create opens a poll. Blank options are dropped; at least two must remain.
func (s *PollService) Create(ctx context.Context, id auth.Identity, question string, options []string) (*models.Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", common.ErrorValidation)
	}
	if len([]rune(question)) > maxQuestionLen {
		return nil, fmt.Errorf("%w: question longer than %d characters", common.ErrorValidation, maxQuestionLen)
	}

	kept := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			kept = append(kept, o)
		}
	}
	if len(kept) < minPollOptions {
		return nil, fmt.Errorf("%w: at least %d options are required", common.ErrorValidation, minPollOptions)
	}
	if len(kept) > maxPollOptions {
		return nil, fmt.Errorf("%w: at most %d options are allowed", common.ErrorValidation, maxPollOptions)
	}

	poll, err := s.repomanager.Polls(s.db).Create(ctx, &models.Poll{
		Question:  question,
		Options:   kept,
		CreatorID: id.UserID,
		Active:    true,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating poll: %w", err)
	}
	return poll, nil
}

// List returns every poll, newest first, with tallies and the caller's vote.
// Votes pointing past the option list are not counted.
func (s *PollService) List(ctx context.Context, id auth.Identity) ([]*models.PollResult, error) {
	repo := s.repomanager.Polls(s.db)

	polls, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing polls: %w", err)
	}

	ids := make([]int64, 0, len(polls))
	for _, p := range polls {
		ids = append(ids, p.ID)
	}
	votes, err := repo.ListVotes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error listing votes: %w", err)
	}

	results := make([]*models.PollResult, 0, len(polls))
	byID := make(map[int64]*models.PollResult, len(polls))
	for _, p := range polls {
		r := &models.PollResult{Poll: *p, Counts: make([]int, len(p.Options)), MyVote: -1}
		results = append(results, r)
		byID[p.ID] = r
	}

	for _, v := range votes {
		r, ok := byID[v.PollID]
		if !ok {
			continue
		}
		if v.OptionIndex >= 0 && v.OptionIndex < len(r.Counts) {
			r.Counts[v.OptionIndex]++
			r.Total++
		}
		if v.UserID == id.UserID {
			r.MyVote = v.OptionIndex
		}
	}

	if err := s.fillCreators(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *PollService) fillCreators(ctx context.Context, results []*models.PollResult) error {
	repo := s.repomanager.Users(s.db)
	names := make(map[int64]string)

	for _, r := range results {
		name, ok := names[r.CreatorID]
		if !ok {
			u, err := repo.GetByID(ctx, r.CreatorID)
			if err != nil {
				return fmt.Errorf("error loading poll creator: %w", err)
			}
			name = u.Username
			names[r.CreatorID] = name
		}
		r.Creator = name
	}
	return nil
}

// Vote records id's choice on pollID, replacing an earlier vote. Closed
// polls yield common.ErrPollClosed.
func (s *PollService) Vote(ctx context.Context, id auth.Identity, pollID int64, optionIndex int) error {
	repo := s.repomanager.Polls(s.db)

	poll, err := repo.Get(ctx, pollID)
	if err != nil {
		return fmt.Errorf("error loading poll %d: %w", pollID, err)
	}
	if !poll.Active {
		return common.ErrPollClosed
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return fmt.Errorf("%w: option %d out of range", common.ErrorValidation, optionIndex)
	}

	if err := repo.UpsertVote(ctx, &models.Vote{PollID: pollID, UserID: id.UserID, OptionIndex: optionIndex}); err != nil {
		return fmt.Errorf("error saving vote: %w", err)
	}
	return nil
}

// Close stops voting on pollID. Only the creator or an admin may close it.
func (s *PollService) Close(ctx context.Context, id auth.Identity, pollID int64) error {
	repo := s.repomanager.Polls(s.db)

	poll, err := repo.Get(ctx, pollID)
	if err != nil {
		return fmt.Errorf("error loading poll %d: %w", pollID, err)
	}
	if !id.CanModify(poll.CreatorID, true) {
		return common.ErrorForbidden
	}
	if err := repo.SetActive(ctx, pollID, false); err != nil {
		return fmt.Errorf("error closing poll %d: %w", pollID, err)
	}
	return nil
}
