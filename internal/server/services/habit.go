package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clubhouse/internal/timex"
)

const (
	defaultFrequency = "daily"
	maxHabitNameLen  = 200
	maxFrequencyLen  = 20
)

// HabitService manages personal habits. Completion is tracked per UTC day.
type HabitService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewHabitService(db *sql.DB, m repomanager.RepositoryManager) *HabitService {
	return &HabitService{db: db, repomanager: m, now: time.Now}
}

// Create adds a habit for id. An empty frequency means daily.
func (s *HabitService) Create(ctx context.Context, id auth.Identity, name, frequency string) (*models.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if len([]rune(name)) > maxHabitNameLen {
		return nil, fmt.Errorf("%w: name longer than %d characters", common.ErrorValidation, maxHabitNameLen)
	}
	frequency = strings.TrimSpace(frequency)
	if frequency == "" {
		frequency = defaultFrequency
	}
	if len([]rune(frequency)) > maxFrequencyLen {
		return nil, fmt.Errorf("%w: frequency longer than %d characters", common.ErrorValidation, maxFrequencyLen)
	}

	habit, err := s.repomanager.Habits(s.db).Create(ctx, &models.Habit{
		Name:      name,
		Frequency: frequency,
		UserID:    id.UserID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating habit: %w", err)
	}
	return habit, nil
}

// ListToday returns id's habits with today's completion state.
func (s *HabitService) ListToday(ctx context.Context, id auth.Identity) ([]*models.HabitStatus, error) {
	repo := s.repomanager.Habits(s.db)

	habits, err := repo.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("error listing habits: %w", err)
	}
	done, err := repo.DoneOn(ctx, id.UserID, timex.Day(s.now()))
	if err != nil {
		return nil, fmt.Errorf("error loading habit logs: %w", err)
	}

	out := make([]*models.HabitStatus, 0, len(habits))
	for _, h := range habits {
		out = append(out, &models.HabitStatus{Habit: *h, DoneToday: done[h.ID]})
	}
	return out, nil
}

// Toggle flips today's completion of habitID. Only the owner may toggle;
// anybody else gets common.ErrorForbidden. It reports the new state.
func (s *HabitService) Toggle(ctx context.Context, id auth.Identity, habitID int64) (bool, error) {
	day := timex.Day(s.now())

	return dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (bool, error) {
		repo := s.repomanager.Habits(tx)

		habit, err := repo.Get(ctx, habitID)
		if err != nil {
			return false, fmt.Errorf("error loading habit %d: %w", habitID, err)
		}
		if !id.CanModify(habit.UserID, false) {
			return false, common.ErrorForbidden
		}

		log, err := repo.GetLog(ctx, habitID, day)
		switch {
		case err == nil:
			if err := repo.DeleteLog(ctx, log.ID); err != nil {
				return false, fmt.Errorf("error deleting habit log: %w", err)
			}
			return false, nil
		case errors.Is(err, common.ErrorNotFound):
			if _, err := repo.CreateLog(ctx, &models.HabitLog{HabitID: habitID, Date: day, Completed: true}); err != nil {
				return false, fmt.Errorf("error creating habit log: %w", err)
			}
			return true, nil
		default:
			return false, fmt.Errorf("error loading habit log: %w", err)
		}
	})
}
