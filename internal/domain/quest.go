package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// QuestStatus represents the lifecycle state of a quest instance.
type QuestStatus string

const (
	QuestStatusActive    QuestStatus = "active"
	QuestStatusCompleted QuestStatus = "completed"
)

// QuestTemplate is an immutable catalog entry describing a repeatable daily task.
type QuestTemplate struct {
	Title        string
	Description  string
	ExerciseType string
	TargetValue  int
	XPReward     int
	GoldReward   int
}

// QuestInstance is a per-user assignment of a template with mutable progress.
// Version guards the read-modify-write cycle against concurrent submissions.
type QuestInstance struct {
	ID              string
	UserID          string
	Title           string
	Description     string
	ExerciseType    string
	TargetValue     int
	CurrentProgress int
	XPReward        int
	GoldReward      int
	Status          QuestStatus
	Version         int64
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// NewQuestInstance instantiates an active quest from a template.
func NewQuestInstance(userID string, tpl QuestTemplate, now time.Time) QuestInstance {
	return QuestInstance{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        tpl.Title,
		Description:  tpl.Description,
		ExerciseType: tpl.ExerciseType,
		TargetValue:  tpl.TargetValue,
		XPReward:     tpl.XPReward,
		GoldReward:   tpl.GoldReward,
		Status:       QuestStatusActive,
		Version:      1,
		CreatedAt:    now,
		ExpiresAt:    now.Add(24 * time.Hour),
	}
}

// ApplyProgress adds a workout amount to the instance, clamping at the target.
// It reports whether this call crossed the completion edge. Progress on an
// already-completed instance is frozen; further applications fail.
func (q *QuestInstance) ApplyProgress(amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("%w: workout amount must be positive", ErrValidation)
	}
	if q.Status != QuestStatusActive {
		return false, fmt.Errorf("%w: quest %s already %s", ErrInvalidState, q.ID, q.Status)
	}

	next := q.CurrentProgress + amount
	if next > q.TargetValue {
		next = q.TargetValue
	}
	q.CurrentProgress = next

	if next >= q.TargetValue {
		q.Status = QuestStatusCompleted
		return true, nil
	}
	return false, nil
}

// Reward is the XP/gold payload emitted exactly once on a completion edge.
type Reward struct {
	XP   int
	Gold int
}

// Reward returns the payload granted when the instance completes.
func (q *QuestInstance) Reward() Reward {
	return Reward{XP: q.XPReward, Gold: q.GoldReward}
}

// Catalog holds the immutable quest templates daily generation draws from.
type Catalog struct {
	templates []QuestTemplate
}

// NewCatalog builds a catalog from the given templates.
func NewCatalog(templates []QuestTemplate) *Catalog {
	return &Catalog{templates: templates}
}

// Size returns the number of templates.
func (c *Catalog) Size() int {
	return len(c.templates)
}

// Draw picks n templates uniformly with replacement. Duplicates within a
// batch are allowed.
func (c *Catalog) Draw(n int) ([]QuestTemplate, error) {
	if len(c.templates) == 0 {
		return nil, fmt.Errorf("%w: quest catalog is empty", ErrValidation)
	}
	out := make([]QuestTemplate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, c.templates[rand.Intn(len(c.templates))])
	}
	return out, nil
}

// DefaultCatalog returns the built-in daily quest templates.
func DefaultCatalog() *Catalog {
	return NewCatalog([]QuestTemplate{
		{
			Title:        "Push Your Limits",
			Description:  "Complete 20 push-ups to build your strength",
			ExerciseType: "push_ups",
			TargetValue:  20,
			XPReward:     50,
			GoldReward:   25,
		},
		{
			Title:        "Hydration Hunter",
			Description:  "Drink 8 glasses of water to maintain your vitality",
			ExerciseType: "water_intake",
			TargetValue:  8,
			XPReward:     30,
			GoldReward:   15,
		},
		{
			Title:        "Speed Demon",
			Description:  "Run 2 miles to increase your agility",
			ExerciseType: "running",
			TargetValue:  2,
			XPReward:     75,
			GoldReward:   40,
		},
		{
			Title:        "Core Crusher",
			Description:  "Do 30 sit-ups to strengthen your core",
			ExerciseType: "sit_ups",
			TargetValue:  30,
			XPReward:     45,
			GoldReward:   20,
		},
		{
			Title:        "Iron Will",
			Description:  "Complete a 30-minute workout session",
			ExerciseType: "gym_session",
			TargetValue:  30,
			XPReward:     100,
			GoldReward:   50,
		},
	})
}
