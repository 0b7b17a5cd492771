package domain

import (
	"errors"
	"testing"
	"time"
)

func TestEvaluateUnlocksOnEdgeOnce(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	catalog := []Achievement{{
		ID:               "first-steps",
		Name:             "First Steps",
		RequirementKind:  RequirementWorkoutCount,
		RequirementValue: 1,
		XPReward:         50,
	}}
	prog := NewProgression("user-1", DefaultCurve(), now)
	rows := map[string]*UserAchievementProgress{}

	unlocked := Evaluate(catalog, rows, &Observation{ExerciseType: "push_ups", Amount: 10}, &prog, now)
	if len(unlocked) != 1 || unlocked[0].ID != "first-steps" {
		t.Fatalf("expected first-steps to unlock, got %+v", unlocked)
	}
	row := rows["first-steps"]
	if !row.Completed || row.UnlockedAt == nil || !row.UnlockedAt.Equal(now) {
		t.Fatalf("expected completed row stamped at %s, got %+v", now, row)
	}

	// Re-running with more workouts must not unlock again or touch the row.
	unlocked = Evaluate(catalog, rows, &Observation{ExerciseType: "push_ups", Amount: 10}, &prog, now.Add(time.Hour))
	if len(unlocked) != 0 {
		t.Fatalf("completed achievement unlocked twice: %+v", unlocked)
	}
	if rows["first-steps"].CurrentProgress != 1 {
		t.Fatalf("completed row progress must stay frozen, got %d", rows["first-steps"].CurrentProgress)
	}
}

func TestEvaluateExerciseTotalAccumulates(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	catalog := []Achievement{{
		ID:               "push-up-champion",
		RequirementKind:  RequirementExerciseTotal,
		RequirementValue: 100,
		ExerciseType:     "push_ups",
	}}
	prog := NewProgression("user-1", DefaultCurve(), now)
	rows := map[string]*UserAchievementProgress{}

	Evaluate(catalog, rows, &Observation{ExerciseType: "push_ups", Amount: 40}, &prog, now)
	// Other exercise types do not count.
	Evaluate(catalog, rows, &Observation{ExerciseType: "running", Amount: 40}, &prog, now)
	if rows["push-up-champion"].CurrentProgress != 40 {
		t.Fatalf("expected progress 40 got %d", rows["push-up-champion"].CurrentProgress)
	}

	unlocked := Evaluate(catalog, rows, &Observation{ExerciseType: "push_ups", Amount: 60}, &prog, now)
	if len(unlocked) != 1 {
		t.Fatalf("expected unlock at 100 total, got %+v", unlocked)
	}
}

func TestEvaluateThresholdKindsTakeMaximum(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	catalog := []Achievement{
		{ID: "novice-hunter", RequirementKind: RequirementLevelReached, RequirementValue: 5},
		{ID: "streak-master", RequirementKind: RequirementStreakLength, RequirementValue: 7},
	}
	prog := NewProgression("user-1", DefaultCurve(), now)
	prog.Level = 3
	prog.CurrentStreak = 4
	rows := map[string]*UserAchievementProgress{}

	Evaluate(catalog, rows, nil, &prog, now)
	if rows["novice-hunter"].CurrentProgress != 3 {
		t.Fatalf("expected level snapshot 3 got %d", rows["novice-hunter"].CurrentProgress)
	}

	// A lower later snapshot must not regress the recorded maximum.
	prog.CurrentStreak = 2
	Evaluate(catalog, rows, nil, &prog, now)
	if rows["streak-master"].CurrentProgress != 4 {
		t.Fatalf("threshold progress regressed to %d", rows["streak-master"].CurrentProgress)
	}

	prog.Level = 5
	unlocked := Evaluate(catalog, rows, nil, &prog, now)
	if len(unlocked) != 1 || unlocked[0].ID != "novice-hunter" {
		t.Fatalf("expected novice-hunter to unlock at level 5, got %+v", unlocked)
	}
}

func TestEvaluateQuestCountConsumesObservation(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	catalog := []Achievement{{
		ID:               "quest-rookie",
		RequirementKind:  RequirementQuestCount,
		RequirementValue: 10,
	}}
	prog := NewProgression("user-1", DefaultCurve(), now)
	rows := map[string]*UserAchievementProgress{}

	Evaluate(catalog, rows, &Observation{QuestCompleted: true}, &prog, now)
	Evaluate(catalog, rows, &Observation{QuestCompleted: false}, &prog, now)
	Evaluate(catalog, rows, nil, &prog, now)

	if rows["quest-rookie"].CurrentProgress != 1 {
		t.Fatalf("expected quest count 1 got %d", rows["quest-rookie"].CurrentProgress)
	}
}

func TestParseRequirementKind(t *testing.T) {
	valid := []string{"workout_count", "quest_count", "level_reached", "streak_length", "exercise_total"}
	for _, raw := range valid {
		if _, err := ParseRequirementKind(raw); err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}

	if _, err := ParseRequirementKind("calories_burned"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown kind, got %v", err)
	}
}
