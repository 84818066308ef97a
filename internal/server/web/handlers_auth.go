package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/netx"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
)

const flashBadLogin = "Invalid username or password"

// identity is only called behind requireAuth.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home", "Home", nil)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, r, "login", "Log in", nil)
		return
	}

	username := r.PostFormValue("username")
	_, token, err := s.svc.Users.Login(r.Context(), username, r.PostFormValue("password"), r.UserAgent(), netx.ClientIP(r))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			s.logger.Info(r.Context(), "login failed", "username", username, "remote", netx.ClientIP(r))
			setFlash(w, r, flashBadLogin)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		s.serverError(w, r, err)
		return
	}

	setSessionCookie(w, r, token, s.sessionDuration)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, r, "register", "Register", nil)
		return
	}

	ctx := r.Context()
	user, err := s.svc.Users.Register(ctx, r.PostFormValue("invite_code"), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		s.fail(w, r, err, "/register")
		return
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID, "username", user.Username, "admin", user.IsAdmin)

	token, err := s.svc.Users.StartSession(ctx, user.ID, r.UserAgent(), netx.ClientIP(r))
	if err != nil {
		// the account exists; let them log in by hand
		s.logger.Error(ctx, "session after register", "error", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	setSessionCookie(w, r, token, s.sessionDuration)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		if err := s.svc.Users.Logout(r.Context(), c.Value); err != nil {
			s.logger.Warn(r.Context(), "logout", "error", err)
		}
	}
	clearSessionCookie(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) chatPage(w http.ResponseWriter, r *http.Request) {
	history, err := s.svc.Chat.History(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, "chat", "Chat", history)
}
