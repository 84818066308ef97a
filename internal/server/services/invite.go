package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/cryptox"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
)

const (
	inviteCodeLength  = 10
	inviteGenAttempts = 3
)

// InviteService issues and lists registration invite codes.
type InviteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	generate    func(length int) (string, error)
}

func NewInviteService(db *sql.DB, m repomanager.RepositoryManager) *InviteService {
	return &InviteService{
		db:          db,
		repomanager: m,
		now:         time.Now,
		generate:    cryptox.InviteCode,
	}
}

// Generate creates a fresh unused code. creatorID is nil for codes issued
// from the command line. A colliding code is regenerated.
func (s *InviteService) Generate(ctx context.Context, creatorID *int64) (*models.InviteCode, error) {
	repo := s.repomanager.Invites(s.db)

	var invite *models.InviteCode
	err := retry.Do(
		func() error {
			code, err := s.generate(inviteCodeLength)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			invite, err = repo.Create(ctx, &models.InviteCode{
				Code:      code,
				CreatedBy: creatorID,
				CreatedAt: s.now().UTC(),
			})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(inviteGenAttempts),
		retry.Delay(0),
		retry.RetryIf(func(err error) bool { return errors.Is(err, common.ErrorConflict) }),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating invite: %w", err)
	}
	return invite, nil
}

// EnsureInitial stores code when no invite exists at all, so a fresh
// install can register its first user. It reports whether code was created.
func (s *InviteService) EnsureInitial(ctx context.Context, code string) (bool, error) {
	if code == "" {
		return false, nil
	}

	repo := s.repomanager.Invites(s.db)
	n, err := repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("error counting invites: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	_, err = repo.Create(ctx, &models.InviteCode{Code: code, CreatedAt: s.now().UTC()})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return false, nil
		}
		return false, fmt.Errorf("error creating initial invite: %w", err)
	}
	return true, nil
}

// List returns every invite, newest first.
func (s *InviteService) List(ctx context.Context) ([]*models.InviteCode, error) {
	list, err := s.repomanager.Invites(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing invites: %w", err)
	}
	return list, nil
}
