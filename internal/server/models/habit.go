package models

import "time"

type Habit struct {
	ID        int64
	Name      string
	Frequency string
	UserID    int64
	CreatedAt time.Time
}

// HabitLog records completion of a habit on one UTC day.
type HabitLog struct {
	ID        int64
	HabitID   int64
	Date      time.Time
	Completed bool
}

// HabitStatus is a habit together with whether it was done today.
type HabitStatus struct {
	Habit
	DoneToday bool
}
