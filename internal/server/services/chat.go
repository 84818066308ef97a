package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
)

// EventMessage is the realtime event carrying a chat message.
const EventMessage = "message"

const maxMessageLen = 4000

// Broadcaster delivers an event to every connected client and returns how
// many clients it was queued for.
type Broadcaster interface {
	Broadcast(event string, payload any) int
}

// Outbound is the chat message as clients see it.
type Outbound struct {
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func toOutbound(m *models.Message) Outbound {
	return Outbound{
		Username:  m.Username,
		Content:   m.Content,
		Timestamp: m.CreatedAt.UTC().Format(common.ChatTimeLayout),
	}
}

// ChatService persists chat messages and fans them out. Persist and
// broadcast happen under one lock, so clients observe messages in commit
// order.
type ChatService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hub         Broadcaster
	historySize int
	logger      logging.Logger
	now         func() time.Time

	mu sync.Mutex
}

func NewChatService(db *sql.DB, m repomanager.RepositoryManager, hub Broadcaster, cfg *config.Config, logger logging.Logger) *ChatService {
	return &ChatService{
		db:          db,
		repomanager: m,
		hub:         hub,
		historySize: cfg.ChatHistorySize,
		logger:      logger,
		now:         time.Now,
	}
}

// Send stores content authored by id and broadcasts it. Empty content is
// dropped: it returns (nil, nil) and nothing is stored or sent. Whitespace
// is content and is kept as sent. Nothing is
// broadcast unless the insert succeeded.
func (s *ChatService) Send(ctx context.Context, id auth.Identity, content string) (*Outbound, error) {
	if content == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(content) > maxMessageLen {
		return nil, fmt.Errorf("%w: message longer than %d characters", common.ErrorValidation, maxMessageLen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.repomanager.Messages(s.db).Create(ctx, &models.Message{
		UserID:    id.UserID,
		Username:  id.Username,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("error saving message: %w", err)
	}

	out := toOutbound(msg)
	n := s.hub.Broadcast(EventMessage, out)
	s.logger.Debug(ctx, "message broadcast", "message_id", msg.ID, "user", id.Username, "receivers", n)

	return &out, nil
}

// History returns the latest messages, oldest first.
func (s *ChatService) History(ctx context.Context) ([]Outbound, error) {
	list, err := s.repomanager.Messages(s.db).ListRecent(ctx, s.historySize)
	if err != nil {
		return nil, fmt.Errorf("error loading history: %w", err)
	}

	out := make([]Outbound, 0, len(list))
	for _, m := range list {
		out = append(out, toOutbound(m))
	}
	return out, nil
}
