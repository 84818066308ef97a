package models

import "time"

type Event struct {
	ID     int64
	Title  string
	Start  time.Time
	End    *time.Time
	Type   string
	UserID int64
}
