package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/clubhouse/internal/common"
)

const (
	textAccessDenied = "Access Denied"
	textPollClosed   = "Poll Closed"
)

// fail translates a service error into a response. Validation and conflict
// errors are flashed and redirect to back; nothing has been written for them.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case isUnauthenticated(err):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, common.ErrPollClosed):
		http.Error(w, textPollClosed, http.StatusForbidden)
	case errors.Is(err, common.ErrorForbidden):
		http.Error(w, textAccessDenied, http.StatusForbidden)
	case errors.Is(err, common.ErrorNotFound):
		http.NotFound(w, r)
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorConflict):
		setFlash(w, r, flashText(err))
		http.Redirect(w, r, back, http.StatusSeeOther)
	default:
		s.serverError(w, r, err)
	}
}

// failJSON is fail for the JSON API.
func (s *Server) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case isUnauthenticated(err):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrorValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrorConflict):
		status = http.StatusConflict
	default:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, status, map[string]string{"status": "error", "error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"status": "error", "error": flashText(err)})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func isUnauthenticated(err error) bool {
	return errors.Is(err, common.ErrorUnauthorized) ||
		errors.Is(err, common.ErrInvalidToken) ||
		errors.Is(err, common.ErrSessionExpired)
}

// flashText turns "validation error: title is required" into
// "Title is required". Named sentinels keep their own wording.
func flashText(err error) string {
	switch {
	case errors.Is(err, common.ErrInviteInvalid):
		return "Invalid or used invite code"
	case errors.Is(err, common.ErrUsernameTaken):
		return "Username already exists"
	}
	msg := err.Error()
	for _, kind := range []error{common.ErrorValidation, common.ErrorConflict} {
		msg = strings.TrimPrefix(msg, kind.Error()+": ")
	}
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
