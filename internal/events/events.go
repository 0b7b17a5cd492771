// Package events defines the event payloads published through the outbox.
package events

import "time"

// WorkoutLogged is emitted for every accepted workout entry.
type WorkoutLogged struct {
	WorkoutID    string    `json:"workout_id"`
	UserID       string    `json:"user_id"`
	QuestID      string    `json:"quest_id,omitempty"`
	ExerciseType string    `json:"exercise_type"`
	Value        int       `json:"value"`
	LoggedAt     time.Time `json:"logged_at"`
}

// QuestCompleted is emitted exactly once when a quest instance transitions to completed.
type QuestCompleted struct {
	QuestID      string    `json:"quest_id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	ExerciseType string    `json:"exercise_type"`
	XPReward     int       `json:"xp_reward"`
	GoldReward   int       `json:"gold_reward"`
	CompletedAt  time.Time `json:"completed_at"`
}

// UserLeveledUp is emitted when a reward application raises the user's level.
type UserLeveledUp struct {
	UserID     string    `json:"user_id"`
	OldLevel   int       `json:"old_level"`
	NewLevel   int       `json:"new_level"`
	AvatarTier string    `json:"avatar_tier"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AchievementUnlocked is emitted on the one-way completed transition of an achievement.
type AchievementUnlocked struct {
	AchievementID string    `json:"achievement_id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Rarity        string    `json:"rarity"`
	XPReward      int       `json:"xp_reward"`
	GoldReward    int       `json:"gold_reward"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}
