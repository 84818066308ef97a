// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// InviteCode is a one-time registration token. Used flips to true exactly
// once, in the same transaction that creates UsedBy.
type InviteCode struct {
	ID        int64
	Code      string
	Used      bool
	UsedBy    *int64
	UsedAt    *time.Time
	CreatedBy *int64
	CreatedAt time.Time
}

// Session binds a browser cookie to a user until ExpiresAt or logout.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
	UserAgent string
	IPAddress string
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
