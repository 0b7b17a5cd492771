package domain

import "time"

// WorkoutLogEntry is an immutable, append-only record of a logged workout.
type WorkoutLogEntry struct {
	ID           string
	UserID       string
	QuestID      string
	ExerciseType string
	Value        int
	Notes        string
	LoggedAt     time.Time
}

// Cursor models the pagination token for workout history queries.
type Cursor struct {
	LoggedAt time.Time
	ID       string
}
