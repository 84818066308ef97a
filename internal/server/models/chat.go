package models

import "time"

// Message is an immutable chat record.
type Message struct {
	ID        int64
	UserID    int64
	Username  string
	Content   string
	CreatedAt time.Time
}
