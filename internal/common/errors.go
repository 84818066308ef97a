// Package common defines shared constants and sentinel errors used across
// the clubhouse server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionExpired     = errors.New("session expired")

	// Registration errors. Both wrap ErrorConflict.
	ErrInviteInvalid = newKindError(ErrorConflict, "invalid or used invite code")
	ErrUsernameTaken = newKindError(ErrorConflict, "username already exists")

	// Poll errors.
	ErrPollClosed = newKindError(ErrorForbidden, "poll closed")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// newKindError returns a sentinel with its own message that still matches kind
// under errors.Is.
func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}
