package domain

import "context"

// OutboxEvent is a domain event recorded in the same transaction as the
// state change that produced it. The repository routes it by EventType.
type OutboxEvent struct {
	EventType     string
	AggregateType string
	AggregateID   string
	PartitionKey  string
	Payload       any
}

// Event types written to the outbox.
const (
	EventWorkoutLogged       = "workout.logged"
	EventQuestCompleted      = "quest.completed"
	EventUserLeveledUp       = "user.leveled_up"
	EventAchievementUnlocked = "achievement.unlocked"
)

// WorkoutCommit is the atomic write set produced by one workout submission.
// Everything in it lands in a single transaction or not at all; the expected
// versions guard against concurrent submissions racing on the same rows.
type WorkoutCommit struct {
	UserID string

	Workout WorkoutLogEntry

	// Quest is nil when the workout was logged without a quest reference.
	Quest                *QuestInstance
	ExpectedQuestVersion int64

	Progression                UserProgression
	ExpectedProgressionVersion int64
	// ProgressionIsNew marks the first write of a user's progression record.
	ProgressionIsNew bool

	AchievementProgress []UserAchievementProgress

	Events []OutboxEvent
}

// Repository captures the persistence operations the core needs. Entities are
// keyed by ID with secondary lookups by owning user.
type Repository interface {
	// ReplaceDailyQuests discards the user's current active daily instances
	// and stores the fresh batch.
	ReplaceDailyQuests(ctx context.Context, userID string, quests []QuestInstance) error
	ListActiveQuests(ctx context.Context, userID string) ([]QuestInstance, error)
	// GetQuest returns nil when no instance matches the user and ID.
	GetQuest(ctx context.Context, userID, questID string) (*QuestInstance, error)

	// CommitWorkout applies the full write set atomically. It returns
	// ErrConflict when an expected version no longer matches.
	CommitWorkout(ctx context.Context, commit WorkoutCommit) error
	ListWorkouts(ctx context.Context, userID string, cursor *Cursor, limit int) ([]WorkoutLogEntry, *Cursor, error)

	// GetProgression returns nil for users without a progression record yet.
	GetProgression(ctx context.Context, userID string) (*UserProgression, error)

	ListAchievements(ctx context.Context) ([]Achievement, error)
	ListUserAchievements(ctx context.Context, userID string) ([]UserAchievementProgress, error)

	// GetSettings returns nil when the user has no stored settings.
	GetSettings(ctx context.Context, userID string) (*UserSettings, error)
	UpsertSettings(ctx context.Context, settings UserSettings) error
}
