// Package habits stores personal habits and their daily completion log.
package habits

import (
	"context"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, habit *models.Habit) (*models.Habit, error)
	Get(ctx context.Context, id int64) (*models.Habit, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Habit, error)
	// GetLog returns the log of habitID for day, or common.ErrorNotFound.
	GetLog(ctx context.Context, habitID int64, day time.Time) (*models.HabitLog, error)
	CreateLog(ctx context.Context, log *models.HabitLog) (*models.HabitLog, error)
	DeleteLog(ctx context.Context, id int64) error
	// DoneOn returns the ids of userID's habits completed on day.
	DoneOn(ctx context.Context, userID int64, day time.Time) (map[int64]bool, error)
}
