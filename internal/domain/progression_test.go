package domain

import (
	"testing"
	"time"
)

func TestApplyRewardSingleLevel(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	curve := DefaultCurve()
	prog := NewProgression("user-1", curve, now)

	if levels := prog.ApplyReward(Reward{XP: 90, Gold: 10}, curve, 2); levels != 0 {
		t.Fatalf("expected no level-up got %d", levels)
	}
	if levels := prog.ApplyReward(Reward{XP: 50, Gold: 5}, curve, 2); levels != 1 {
		t.Fatalf("expected one level-up got %d", levels)
	}

	if prog.Level != 2 {
		t.Fatalf("expected level 2 got %d", prog.Level)
	}
	if prog.XP != 40 {
		t.Fatalf("expected residual xp 40 got %d", prog.XP)
	}
	if prog.XPToNextLevel != 150 {
		t.Fatalf("expected next threshold 150 got %d", prog.XPToNextLevel)
	}
	if prog.Gold != 15 {
		t.Fatalf("expected gold 15 got %d", prog.Gold)
	}
	if prog.Strength != 12 || prog.Agility != 12 || prog.Stamina != 12 || prog.Vitality != 12 {
		t.Fatalf("expected all stats at 12, got %d/%d/%d/%d", prog.Strength, prog.Agility, prog.Stamina, prog.Vitality)
	}
}

func TestApplyRewardMultiLevelJump(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	curve := DefaultCurve()
	prog := NewProgression("user-1", curve, now)

	// Thresholds: L1=100, L2=150, L3=225. 485 XP crosses all three.
	levels := prog.ApplyReward(Reward{XP: 485}, curve, 2)
	if levels != 3 {
		t.Fatalf("expected 3 levels got %d", levels)
	}
	if prog.Level != 4 {
		t.Fatalf("expected level 4 got %d", prog.Level)
	}
	if prog.XP != 10 {
		t.Fatalf("expected residual xp 10 got %d", prog.XP)
	}
	if prog.XP >= prog.XPToNextLevel {
		t.Fatalf("residual xp %d must be below the next threshold %d", prog.XP, prog.XPToNextLevel)
	}
	if prog.Strength != 16 {
		t.Fatalf("expected strength 16 after three level-ups got %d", prog.Strength)
	}
}

func TestAvatarTierBoundaries(t *testing.T) {
	cases := []struct {
		level int
		tier  string
	}{
		{1, TierBronze},
		{9, TierBronze},
		{10, TierSilver},
		{19, TierSilver},
		{20, TierGold},
		{29, TierGold},
		{30, TierDiamond},
		{49, TierDiamond},
		{50, TierShadow},
		{120, TierShadow},
	}
	for _, tc := range cases {
		if got := AvatarTier(tc.level); got != tc.tier {
			t.Fatalf("level %d: expected %s got %s", tc.level, tc.tier, got)
		}
	}
}

func TestAvatarTierUpdatesOnLevelUp(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	curve := Curve{Base: 1, Growth: 1}
	prog := NewProgression("user-1", curve, now)

	prog.ApplyReward(Reward{XP: 9}, curve, 2)
	if prog.Level != 10 || prog.AvatarTier != TierSilver {
		t.Fatalf("expected level 10 Silver got level %d tier %s", prog.Level, prog.AvatarTier)
	}
}

func TestRecordWorkoutDayStreak(t *testing.T) {
	day1 := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	prog := NewProgression("user-1", DefaultCurve(), day1)

	prog.RecordWorkoutDay(day1)
	if prog.CurrentStreak != 1 || prog.TotalWorkouts != 1 {
		t.Fatalf("expected streak 1, workouts 1; got %d, %d", prog.CurrentStreak, prog.TotalWorkouts)
	}

	// Second workout the same day leaves the streak alone.
	prog.RecordWorkoutDay(day1.Add(6 * time.Hour))
	if prog.CurrentStreak != 1 || prog.TotalWorkouts != 2 {
		t.Fatalf("same-day workout must not extend the streak; got %d", prog.CurrentStreak)
	}

	prog.RecordWorkoutDay(day1.Add(24 * time.Hour))
	if prog.CurrentStreak != 2 {
		t.Fatalf("next-day workout must extend the streak; got %d", prog.CurrentStreak)
	}

	// A missed day resets to 1.
	prog.RecordWorkoutDay(day1.Add(4 * 24 * time.Hour))
	if prog.CurrentStreak != 1 {
		t.Fatalf("gap must reset the streak; got %d", prog.CurrentStreak)
	}
	if prog.TotalWorkouts != 4 {
		t.Fatalf("expected 4 workouts got %d", prog.TotalWorkouts)
	}
}

func TestXPForLevel(t *testing.T) {
	curve := DefaultCurve()
	cases := []struct {
		level int
		xp    int
	}{
		{1, 100},
		{2, 150},
		{3, 225},
		{4, 337},
	}
	for _, tc := range cases {
		if got := curve.XPForLevel(tc.level); got != tc.xp {
			t.Fatalf("level %d: expected %d got %d", tc.level, tc.xp, got)
		}
	}
}
