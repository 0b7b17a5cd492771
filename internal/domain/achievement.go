package domain

import (
	"fmt"
	"time"
)

// RequirementKind is the closed set of achievement requirement categories.
// Counts accumulate as matching events arrive; threshold kinds (level,
// streak) take the maximum observed value.
type RequirementKind string

const (
	RequirementWorkoutCount  RequirementKind = "workout_count"
	RequirementQuestCount    RequirementKind = "quest_count"
	RequirementLevelReached  RequirementKind = "level_reached"
	RequirementStreakLength  RequirementKind = "streak_length"
	RequirementExerciseTotal RequirementKind = "exercise_total"
)

// ParseRequirementKind validates a stored requirement kind against the closed set.
func ParseRequirementKind(raw string) (RequirementKind, error) {
	switch k := RequirementKind(raw); k {
	case RequirementWorkoutCount, RequirementQuestCount, RequirementLevelReached,
		RequirementStreakLength, RequirementExerciseTotal:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown requirement kind %q", ErrValidation, raw)
	}
}

// Achievement is an immutable template describing an unlockable milestone.
// ExerciseType is set only for RequirementExerciseTotal.
type Achievement struct {
	ID               string
	Name             string
	Description      string
	Category         string
	RequirementKind  RequirementKind
	RequirementValue int
	ExerciseType     string
	XPReward         int
	GoldReward       int
	Icon             string
	Rarity           string
}

// Reward returns the payload granted when the achievement unlocks.
func (a Achievement) Reward() Reward {
	return Reward{XP: a.XPReward, Gold: a.GoldReward}
}

// UserAchievementProgress tracks a user's progress toward one achievement.
// Completed is a one-way transition; UnlockedAt is set exactly at that edge.
type UserAchievementProgress struct {
	ID              string
	UserID          string
	AchievementID   string
	CurrentProgress int
	Completed       bool
	UnlockedAt      *time.Time
}

// Observation carries the facts of a single workout submission into
// achievement evaluation. Count kinds consume the deltas; threshold kinds
// read the progression snapshot.
type Observation struct {
	ExerciseType   string
	Amount         int
	QuestCompleted bool
}

// Evaluate advances the supplied progress rows against one observation and
// the current progression snapshot. Rows are mutated in place; the returned
// slice holds the achievements whose completed flag flipped during this call.
// Already-completed rows are never touched again, which keeps the unlock
// reward an exactly-once emission.
func Evaluate(catalog []Achievement, rows map[string]*UserAchievementProgress, obs *Observation, prog *UserProgression, now time.Time) []Achievement {
	var unlocked []Achievement

	for _, a := range catalog {
		row := rows[a.ID]
		if row == nil {
			row = &UserAchievementProgress{UserID: prog.UserID, AchievementID: a.ID}
			rows[a.ID] = row
		}
		if row.Completed {
			continue
		}

		switch a.RequirementKind {
		case RequirementWorkoutCount:
			if obs != nil {
				row.CurrentProgress++
			}
		case RequirementQuestCount:
			if obs != nil && obs.QuestCompleted {
				row.CurrentProgress++
			}
		case RequirementExerciseTotal:
			if obs != nil && obs.ExerciseType == a.ExerciseType {
				row.CurrentProgress += obs.Amount
			}
		case RequirementLevelReached:
			if prog.Level > row.CurrentProgress {
				row.CurrentProgress = prog.Level
			}
		case RequirementStreakLength:
			if prog.CurrentStreak > row.CurrentProgress {
				row.CurrentProgress = prog.CurrentStreak
			}
		}

		if row.CurrentProgress >= a.RequirementValue {
			ts := now
			row.Completed = true
			row.UnlockedAt = &ts
			unlocked = append(unlocked, a)
		}
	}

	return unlocked
}

// DefaultAchievements returns the seeded milestone catalog.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{
			ID:               "first-steps",
			Name:             "First Steps",
			Description:      "Complete your first workout",
			Category:         "workout",
			RequirementKind:  RequirementWorkoutCount,
			RequirementValue: 1,
			XPReward:         50,
			GoldReward:       25,
			Icon:             "footsteps",
			Rarity:           "common",
		},
		{
			ID:               "push-up-champion",
			Name:             "Push-up Champion",
			Description:      "Complete 100 push-ups in total",
			Category:         "exercise",
			RequirementKind:  RequirementExerciseTotal,
			RequirementValue: 100,
			ExerciseType:     "push_ups",
			XPReward:         100,
			GoldReward:       50,
			Icon:             "fitness",
			Rarity:           "rare",
		},
		{
			ID:               "marathon-runner",
			Name:             "Marathon Runner",
			Description:      "Run a total of 26 miles",
			Category:         "exercise",
			RequirementKind:  RequirementExerciseTotal,
			RequirementValue: 26,
			ExerciseType:     "running",
			XPReward:         200,
			GoldReward:       100,
			Icon:             "walk",
			Rarity:           "epic",
		},
		{
			ID:               "quest-rookie",
			Name:             "Quest Rookie",
			Description:      "Complete 10 quests",
			Category:         "quest",
			RequirementKind:  RequirementQuestCount,
			RequirementValue: 10,
			XPReward:         75,
			GoldReward:       40,
			Icon:             "trophy",
			Rarity:           "common",
		},
		{
			ID:               "streak-master",
			Name:             "Streak Master",
			Description:      "Maintain a 7-day workout streak",
			Category:         "streak",
			RequirementKind:  RequirementStreakLength,
			RequirementValue: 7,
			XPReward:         150,
			GoldReward:       75,
			Icon:             "flame",
			Rarity:           "rare",
		},
		{
			ID:               "dedicated-hunter",
			Name:             "Dedicated Hunter",
			Description:      "Complete 50 quests",
			Category:         "quest",
			RequirementKind:  RequirementQuestCount,
			RequirementValue: 50,
			XPReward:         250,
			GoldReward:       125,
			Icon:             "medal",
			Rarity:           "epic",
		},
		{
			ID:               "novice-hunter",
			Name:             "Novice Hunter",
			Description:      "Reach level 5",
			Category:         "level",
			RequirementKind:  RequirementLevelReached,
			RequirementValue: 5,
			XPReward:         100,
			GoldReward:       50,
			Icon:             "shield",
			Rarity:           "common",
		},
		{
			ID:               "elite-hunter",
			Name:             "Elite Hunter",
			Description:      "Reach level 20",
			Category:         "level",
			RequirementKind:  RequirementLevelReached,
			RequirementValue: 20,
			XPReward:         300,
			GoldReward:       150,
			Icon:             "star",
			Rarity:           "epic",
		},
		{
			ID:               "shadow-monarch",
			Name:             "Shadow Monarch",
			Description:      "Reach level 50 and unlock the Shadow tier",
			Category:         "level",
			RequirementKind:  RequirementLevelReached,
			RequirementValue: 50,
			XPReward:         1000,
			GoldReward:       500,
			Icon:             "flash",
			Rarity:           "legendary",
		},
	}
}
