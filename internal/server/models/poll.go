package models

import "time"

type Poll struct {
	ID        int64
	Question  string
	Options   []string
	CreatorID int64
	Active    bool
	CreatedAt time.Time
}

// Vote is unique per (PollID, UserID); revoting replaces OptionIndex.
type Vote struct {
	ID          int64
	PollID      int64
	UserID      int64
	OptionIndex int
}

// PollResult is a poll with per-option tallies and the viewer's own vote
// (-1 when the viewer has not voted).
type PollResult struct {
	Poll
	Counts  []int
	Total   int
	MyVote  int
	Creator string
}
