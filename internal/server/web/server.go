// Package web serves the clubhouse HTML pages, the calendar JSON API and
// the websocket endpoint behind a gorilla/mux router.
package web

import (
	"context"
	"errors"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
	"github.com/gorilla/mux"
)

const (
	maxUploadSize   = 64 << 20
	maxJSONBodySize = 64 << 10
	shutdownTimeout = 10 * time.Second
)

// Services are the domain services the handlers call into.
type Services struct {
	Users    *services.UserService
	Invites  *services.InviteService
	Chat     *services.ChatService
	Forum    *services.ForumService
	Files    *services.FileService
	Calendar *services.CalendarService
	Habits   *services.HabitService
	Polls    *services.PollService
}

type Server struct {
	address         string
	sessionDuration time.Duration
	svc             Services
	realtime        http.Handler
	limiter         *IPRateLimiter
	pages           map[string]*template.Template
	logger          logging.Logger
}

// NewServer prepares the router's dependencies. realtime serves /ws and
// limiter throttles credential POSTs.
func NewServer(cfg *config.Config, svc Services, realtime http.Handler, limiter *IPRateLimiter, l logging.Logger) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{
		address:         cfg.HTTPAddr,
		sessionDuration: cfg.SessionDuration,
		svc:             svc,
		realtime:        realtime,
		limiter:         limiter,
		pages:           pages,
		logger:          l.With("module", "web_server"),
	}, nil
}

// Handler returns the full routing tree wrapped in the access log.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loadIdentity)

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", staticHandler()))

	r.Handle("/login", s.limiter.limitPOST(guestOnly(s.login))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/register", s.limiter.limitPOST(guestOnly(s.register))).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", requireAuth(s.logout)).Methods(http.MethodGet)

	r.HandleFunc("/", requireAuth(s.home)).Methods(http.MethodGet)
	r.HandleFunc("/chat", requireAuth(s.chatPage)).Methods(http.MethodGet)
	r.Handle("/ws", s.realtime).Methods(http.MethodGet)

	r.HandleFunc("/forum", requireAuth(s.forumList)).Methods(http.MethodGet)
	r.HandleFunc("/forum/{category_id:[0-9]+}", requireAuth(s.forumCategory)).Methods(http.MethodGet)
	r.HandleFunc("/forum/{category_id:[0-9]+}/new", requireAuth(s.newThread)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/thread/{thread_id:[0-9]+}", requireAuth(s.thread)).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/files", requireAuth(s.files)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/files/download/{id:[0-9]+}", requireAuth(s.downloadFile)).Methods(http.MethodGet)
	r.HandleFunc("/files/delete/{id:[0-9]+}", requireAuth(s.deleteFile)).Methods(http.MethodGet)

	r.HandleFunc("/calendar", requireAuth(s.calendarPage)).Methods(http.MethodGet)
	r.HandleFunc("/api/events", requireAuth(s.apiEvents)).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/habits", requireAuth(s.habits)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/habits/toggle/{id:[0-9]+}", requireAuth(s.toggleHabit)).Methods(http.MethodGet)

	r.HandleFunc("/polls", requireAuth(s.polls)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/polls/vote/{poll_id:[0-9]+}/{option_index:[0-9]+}", requireAuth(s.vote)).Methods(http.MethodGet)
	r.HandleFunc("/polls/close/{id:[0-9]+}", requireAuth(s.closePoll)).Methods(http.MethodPost)

	r.HandleFunc("/admin/generate_invite", requireAdmin(s.generateInvite)).Methods(http.MethodGet)
	r.HandleFunc("/admin/invites", requireAdmin(s.listInvites)).Methods(http.MethodGet)

	return s.accessLog(r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "web server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting web server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// pathID reads an integer route variable. The routes only admit digits, so
// a failure here means the value overflowed.
func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[key], 10, 64)
	return id, err == nil
}
