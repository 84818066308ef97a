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
	eventTypeTest    = "test"
	colorTest        = "#cf6679"
	colorDefault     = "#bb86fc"
	eventItemLayout  = "2006-01-02T15:04:05"
	maxEventTitleLen = 200
)

// EventInput is a calendar event as posted by the calendar page. Times use
// common.EventTimeLayout; End may be empty.
type EventInput struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
	Type  string `json:"type"`
}

// EventItem is an event as consumed by the calendar widget.
type EventItem struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Start           string  `json:"start"`
	End             *string `json:"end"`
	BackgroundColor string  `json:"backgroundColor"`
	BorderColor     string  `json:"borderColor"`
}

type CalendarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCalendarService(db *sql.DB, m repomanager.RepositoryManager) *CalendarService {
	return &CalendarService{db: db, repomanager: m}
}

// Create validates in and stores it as an event of id.
func (s *CalendarService) Create(ctx context.Context, id auth.Identity, in EventInput) (*models.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if len([]rune(title)) > maxEventTitleLen {
		return nil, fmt.Errorf("%w: title longer than %d characters", common.ErrorValidation, maxEventTitleLen)
	}

	start, err := time.ParseInLocation(common.EventTimeLayout, in.Start, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start time %q", common.ErrorValidation, in.Start)
	}

	var end *time.Time
	if in.End != "" {
		e, err := time.ParseInLocation(common.EventTimeLayout, in.End, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: bad end time %q", common.ErrorValidation, in.End)
		}
		if e.Before(start) {
			return nil, fmt.Errorf("%w: event ends before it starts", common.ErrorValidation)
		}
		end = &e
	}

	event, err := s.repomanager.Events(s.db).Create(ctx, &models.Event{
		Title:  title,
		Start:  start,
		End:    end,
		Type:   strings.TrimSpace(in.Type),
		UserID: id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating event: %w", err)
	}
	return event, nil
}

// List returns every event, ordered by start, with display colors.
func (s *CalendarService) List(ctx context.Context) ([]EventItem, error) {
	events, err := s.repomanager.Events(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}

	items := make([]EventItem, 0, len(events))
	for _, e := range events {
		color := colorDefault
		if e.Type == eventTypeTest {
			color = colorTest
		}
		item := EventItem{
			ID:              e.ID,
			Title:           e.Title,
			Start:           e.Start.UTC().Format(eventItemLayout),
			BackgroundColor: color,
			BorderColor:     color,
		}
		if e.End != nil {
			end := e.End.UTC().Format(eventItemLayout)
			item.End = &end
		}
		items = append(items, item)
	}
	return items, nil
}
