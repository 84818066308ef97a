package models

import "time"

type Category struct {
	ID          int64
	Name        string
	Description string
}

type Thread struct {
	ID         int64
	Title      string
	CategoryID int64
	UserID     int64
	CreatedAt  time.Time
}

type Post struct {
	ID        int64
	Content   string
	ThreadID  int64
	UserID    int64
	CreatedAt time.Time
}

// ThreadSummary is a thread row as listed in a category.
type ThreadSummary struct {
	Thread
	Author    string
	PostCount int
}

// PostView is a post with its author's name.
type PostView struct {
	Post
	Author string
}
