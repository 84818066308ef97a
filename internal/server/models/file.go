package models

import "time"

// File describes an uploaded blob. Filename is the sanitized, timestamp
// prefixed storage name; OriginalName is what the uploader sent.
type File struct {
	ID           int64
	Filename     string
	OriginalName string
	Size         int64
	UserID       int64
	Username     string
	UploadedAt   time.Time
}
