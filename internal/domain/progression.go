package domain

import (
	"math"
	"time"
)

// Avatar tiers derived from level. The tier is never stored on its own
// authority; it is recomputed whenever the level changes.
const (
	TierBronze  = "Bronze"
	TierSilver  = "Silver"
	TierGold    = "Gold"
	TierDiamond = "Diamond"
	TierShadow  = "Shadow"
)

// AvatarTier maps a level to its cosmetic tier.
func AvatarTier(level int) string {
	switch {
	case level >= 50:
		return TierShadow
	case level >= 30:
		return TierDiamond
	case level >= 20:
		return TierGold
	case level >= 10:
		return TierSilver
	default:
		return TierBronze
	}
}

// Curve describes the exponential XP requirement per level:
// xp_to_next_level = Base * Growth^(level-1).
type Curve struct {
	Base   int
	Growth float64
}

// DefaultCurve mirrors the tuning the product shipped with.
func DefaultCurve() Curve {
	return Curve{Base: 100, Growth: 1.5}
}

// XPForLevel returns the XP required to advance past the given level.
func (c Curve) XPForLevel(level int) int {
	return int(float64(c.Base) * math.Pow(c.Growth, float64(level-1)))
}

// UserProgression is the single per-user record mutated by reward application.
type UserProgression struct {
	UserID               string
	Level                int
	XP                   int
	XPToNextLevel        int
	Gold                 int
	Strength             int
	Agility              int
	Stamina              int
	Vitality             int
	TotalQuestsCompleted int
	TotalWorkouts        int
	CurrentStreak        int
	LastWorkoutDay       time.Time
	AvatarTier           string
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewProgression returns the level-1 record created on first contact.
func NewProgression(userID string, curve Curve, now time.Time) UserProgression {
	return UserProgression{
		UserID:        userID,
		Level:         1,
		XPToNextLevel: curve.XPForLevel(1),
		Strength:      10,
		Agility:       10,
		Stamina:       10,
		Vitality:      10,
		AvatarTier:    TierBronze,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApplyReward credits XP and gold, then resolves any level-ups in a loop so a
// single large reward crossing several thresholds is handled in one call.
// Each level gained raises the four stats by statGain. Returns the number of
// levels gained.
func (p *UserProgression) ApplyReward(r Reward, curve Curve, statGain int) int {
	p.XP += r.XP
	p.Gold += r.Gold

	levels := 0
	for p.XP >= p.XPToNextLevel {
		p.XP -= p.XPToNextLevel
		p.Level++
		levels++
		p.XPToNextLevel = curve.XPForLevel(p.Level)
	}

	if levels > 0 {
		p.Strength += statGain * levels
		p.Agility += statGain * levels
		p.Stamina += statGain * levels
		p.Vitality += statGain * levels
		p.AvatarTier = AvatarTier(p.Level)
	}
	return levels
}

// RecordWorkoutDay updates the total workout count and the consecutive-day
// streak. A workout on the day after the last one extends the streak, a
// repeat on the same day leaves it untouched, and a gap resets it.
func (p *UserProgression) RecordWorkoutDay(now time.Time) {
	p.TotalWorkouts++

	day := now.UTC().Truncate(24 * time.Hour)
	switch {
	case p.LastWorkoutDay.IsZero():
		p.CurrentStreak = 1
	case day.Equal(p.LastWorkoutDay):
		// Second workout of the day; streak unchanged.
	case day.Equal(p.LastWorkoutDay.Add(24 * time.Hour)):
		p.CurrentStreak++
	default:
		p.CurrentStreak = 1
	}
	p.LastWorkoutDay = day
}
