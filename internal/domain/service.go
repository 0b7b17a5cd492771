// Package domain implements the quest, workout, progression, and achievement
// rules behind the fitness gamification API.
package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/levelup/internal/events"
	"example.com/levelup/internal/observability"
)

// ServiceConfig carries the progression tuning constants.
type ServiceConfig struct {
	DailyQuestCount  int
	Curve            Curve
	StatGainPerLevel int
}

// DefaultServiceConfig mirrors the shipped product tuning.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DailyQuestCount:  3,
		Curve:            DefaultCurve(),
		StatGainPerLevel: 2,
	}
}

// Service orchestrates quest generation, workout processing, reward
// application, and achievement evaluation against a Repository.
type Service struct {
	repo    Repository
	catalog *Catalog
	cfg     ServiceConfig
	now     func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, catalog *Catalog, cfg ServiceConfig) *Service {
	if cfg.DailyQuestCount <= 0 {
		cfg.DailyQuestCount = 3
	}
	if cfg.Curve.Base <= 0 {
		cfg.Curve = DefaultCurve()
	}
	if cfg.StatGainPerLevel <= 0 {
		cfg.StatGainPerLevel = 2
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		cfg:     cfg,
		now:     time.Now,
	}
}

// GenerateDailyQuests replaces the user's active daily quests with a fresh
// batch drawn from the catalog. The caller is responsible for at-most-once-
// per-day scheduling; generation itself does not deduplicate by date.
func (s *Service) GenerateDailyQuests(ctx context.Context, userID string) ([]QuestInstance, error) {
	templates, err := s.catalog.Draw(s.cfg.DailyQuestCount)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	instances := make([]QuestInstance, 0, len(templates))
	for _, tpl := range templates {
		instances = append(instances, NewQuestInstance(userID, tpl, now))
	}

	if err := s.repo.ReplaceDailyQuests(ctx, userID, instances); err != nil {
		return nil, err
	}
	observability.RecordQuestsGenerated(len(instances))
	return instances, nil
}

// ListActiveQuests returns the user's active quest instances.
func (s *Service) ListActiveQuests(ctx context.Context, userID string) ([]QuestInstance, error) {
	return s.repo.ListActiveQuests(ctx, userID)
}

// LogWorkoutInput captures one workout submission from the API layer.
type LogWorkoutInput struct {
	UserID       string
	QuestID      string
	ExerciseType string
	Value        int
	Notes        string
}

// WorkoutResult reports the outcome of a workout submission.
type WorkoutResult struct {
	WorkoutID            string
	NewProgress          int
	Target               int
	QuestCompleted       bool
	XPAwarded            int
	GoldAwarded          int
	LeveledUp            bool
	NewLevel             int
	UnlockedAchievements []Achievement
}

// LogWorkout applies one workout: quest progress (clamped at the target),
// the append-only workout log, reward and level resolution, streak upkeep,
// and achievement evaluation. The whole write set is committed in a single
// transaction so no failure path leaves partial state; rewards are emitted
// only on the completion edge, so duplicates after completion are rejected
// rather than re-rewarded.
func (s *Service) LogWorkout(ctx context.Context, input LogWorkoutInput) (*WorkoutResult, error) {
	if input.Value <= 0 {
		return nil, fmt.Errorf("%w: workout value must be positive", ErrValidation)
	}
	if input.ExerciseType == "" {
		return nil, fmt.Errorf("%w: exercise_type is required", ErrValidation)
	}

	now := s.now().UTC()

	prog, err := s.repo.GetProgression(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	progressionIsNew := prog == nil
	if progressionIsNew {
		created := NewProgression(input.UserID, s.cfg.Curve, now)
		prog = &created
	}
	expectedProgVersion := prog.Version
	startLevel := prog.Level

	workout := WorkoutLogEntry{
		ID:           uuid.NewString(),
		UserID:       input.UserID,
		QuestID:      input.QuestID,
		ExerciseType: input.ExerciseType,
		Value:        input.Value,
		Notes:        input.Notes,
		LoggedAt:     now,
	}

	result := &WorkoutResult{WorkoutID: workout.ID}
	outboxEvents := []OutboxEvent{{
		EventType:     EventWorkoutLogged,
		AggregateType: "workout",
		AggregateID:   workout.ID,
		PartitionKey:  input.UserID,
		Payload: events.WorkoutLogged{
			WorkoutID:    workout.ID,
			UserID:       input.UserID,
			QuestID:      input.QuestID,
			ExerciseType: input.ExerciseType,
			Value:        input.Value,
			LoggedAt:     now,
		},
	}}

	var quest *QuestInstance
	var expectedQuestVersion int64
	completed := false
	if input.QuestID != "" {
		quest, err = s.repo.GetQuest(ctx, input.UserID, input.QuestID)
		if err != nil {
			return nil, err
		}
		if quest == nil {
			return nil, fmt.Errorf("%w: quest %s", ErrNotFound, input.QuestID)
		}
		expectedQuestVersion = quest.Version

		completed, err = quest.ApplyProgress(input.Value)
		if err != nil {
			return nil, err
		}
		result.NewProgress = quest.CurrentProgress
		result.Target = quest.TargetValue
		result.QuestCompleted = completed
	}

	prog.RecordWorkoutDay(now)

	if completed {
		reward := quest.Reward()
		prog.ApplyReward(reward, s.cfg.Curve, s.cfg.StatGainPerLevel)
		prog.TotalQuestsCompleted++
		result.XPAwarded += reward.XP
		result.GoldAwarded += reward.Gold
		outboxEvents = append(outboxEvents, OutboxEvent{
			EventType:     EventQuestCompleted,
			AggregateType: "quest",
			AggregateID:   quest.ID,
			PartitionKey:  input.UserID,
			Payload: events.QuestCompleted{
				QuestID:      quest.ID,
				UserID:       input.UserID,
				Title:        quest.Title,
				ExerciseType: quest.ExerciseType,
				XPReward:     reward.XP,
				GoldReward:   reward.Gold,
				CompletedAt:  now,
			},
		})
	}

	unlocked, achievementEvents, err := s.evaluateAchievements(ctx, prog, &Observation{
		ExerciseType:   input.ExerciseType,
		Amount:         input.Value,
		QuestCompleted: completed,
	}, now, result)
	if err != nil {
		return nil, err
	}
	outboxEvents = append(outboxEvents, achievementEvents...)

	if prog.Level > startLevel {
		result.LeveledUp = true
		outboxEvents = append(outboxEvents, OutboxEvent{
			EventType:     EventUserLeveledUp,
			AggregateType: "user",
			AggregateID:   input.UserID,
			PartitionKey:  input.UserID,
			Payload: events.UserLeveledUp{
				UserID:     input.UserID,
				OldLevel:   startLevel,
				NewLevel:   prog.Level,
				AvatarTier: prog.AvatarTier,
				OccurredAt: now,
			},
		})
	}
	result.NewLevel = prog.Level
	result.UnlockedAchievements = unlocked.achievements

	prog.UpdatedAt = now
	commit := WorkoutCommit{
		UserID:                     input.UserID,
		Workout:                    workout,
		Quest:                      quest,
		ExpectedQuestVersion:       expectedQuestVersion,
		Progression:                *prog,
		ExpectedProgressionVersion: expectedProgVersion,
		ProgressionIsNew:           progressionIsNew,
		AchievementProgress:        unlocked.rows,
		Events:                     outboxEvents,
	}

	if err := s.repo.CommitWorkout(ctx, commit); err != nil {
		return nil, err
	}

	observability.RecordWorkoutLogged(input.ExerciseType)
	if completed {
		observability.RecordQuestCompleted()
	}
	if levels := prog.Level - startLevel; levels > 0 {
		observability.RecordLevelUps(levels)
	}
	observability.RecordAchievementsUnlocked(len(unlocked.achievements))

	return result, nil
}

type evaluationOutcome struct {
	achievements []Achievement
	rows         []UserAchievementProgress
}

// evaluateAchievements runs the evaluator until a pass unlocks nothing.
// Unlock rewards feed back into the progression engine, so a pass that
// raises the level can unlock level achievements on the next pass. The loop
// is bounded by the catalog size; each achievement unlocks at most once.
func (s *Service) evaluateAchievements(ctx context.Context, prog *UserProgression, obs *Observation, now time.Time, result *WorkoutResult) (evaluationOutcome, []OutboxEvent, error) {
	catalog, err := s.repo.ListAchievements(ctx)
	if err != nil {
		return evaluationOutcome{}, nil, err
	}
	existing, err := s.repo.ListUserAchievements(ctx, prog.UserID)
	if err != nil {
		return evaluationOutcome{}, nil, err
	}

	rows := make(map[string]*UserAchievementProgress, len(existing))
	for i := range existing {
		row := existing[i]
		rows[row.AchievementID] = &row
	}

	var outcome evaluationOutcome
	var outboxEvents []OutboxEvent
	for pass := 0; pass <= len(catalog); pass++ {
		unlocked := Evaluate(catalog, rows, obs, prog, now)
		obs = nil
		if len(unlocked) == 0 {
			break
		}
		for _, a := range unlocked {
			reward := a.Reward()
			prog.ApplyReward(reward, s.cfg.Curve, s.cfg.StatGainPerLevel)
			result.XPAwarded += reward.XP
			result.GoldAwarded += reward.Gold
			outcome.achievements = append(outcome.achievements, a)
			outboxEvents = append(outboxEvents, OutboxEvent{
				EventType:     EventAchievementUnlocked,
				AggregateType: "achievement",
				AggregateID:   a.ID,
				PartitionKey:  prog.UserID,
				Payload: events.AchievementUnlocked{
					AchievementID: a.ID,
					UserID:        prog.UserID,
					Name:          a.Name,
					Rarity:        a.Rarity,
					XPReward:      reward.XP,
					GoldReward:    reward.Gold,
					UnlockedAt:    now,
				},
			})
		}
	}

	for _, a := range catalog {
		row := rows[a.ID]
		if row == nil {
			continue
		}
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		outcome.rows = append(outcome.rows, *row)
	}

	return outcome, outboxEvents, nil
}

// ListWorkouts returns the user's workout history, newest first.
func (s *Service) ListWorkouts(ctx context.Context, userID string, cursor *Cursor, limit int) ([]WorkoutLogEntry, *Cursor, error) {
	return s.repo.ListWorkouts(ctx, userID, cursor, limit)
}

// GetProfile returns the user's progression record, or a fresh level-1 view
// for users who have not logged anything yet. The fresh view is not persisted.
func (s *Service) GetProfile(ctx context.Context, userID string) (*UserProgression, error) {
	prog, err := s.repo.GetProgression(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prog == nil {
		created := NewProgression(userID, s.cfg.Curve, s.now().UTC())
		return &created, nil
	}
	return prog, nil
}

// AchievementStatus pairs an achievement template with the user's progress.
type AchievementStatus struct {
	Achievement     Achievement
	CurrentProgress int
	Completed       bool
	UnlockedAt      *time.Time
}

// ListAchievements returns the full catalog annotated with the user's progress.
func (s *Service) ListAchievements(ctx context.Context, userID string) ([]AchievementStatus, error) {
	catalog, err := s.repo.ListAchievements(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}

	byAchievement := make(map[string]UserAchievementProgress, len(rows))
	for _, row := range rows {
		byAchievement[row.AchievementID] = row
	}

	out := make([]AchievementStatus, 0, len(catalog))
	for _, a := range catalog {
		status := AchievementStatus{Achievement: a}
		if row, ok := byAchievement[a.ID]; ok {
			status.CurrentProgress = row.CurrentProgress
			status.Completed = row.Completed
			status.UnlockedAt = row.UnlockedAt
		}
		out = append(out, status)
	}
	return out, nil
}

// GetSettings returns the user's settings, creating defaults on first access.
func (s *Service) GetSettings(ctx context.Context, userID string) (*UserSettings, error) {
	settings, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	created := DefaultSettings(userID, s.now().UTC())
	if err := s.repo.UpsertSettings(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSettings persists the merged settings record.
func (s *Service) UpdateSettings(ctx context.Context, settings UserSettings) (*UserSettings, error) {
	settings.UpdatedAt = s.now().UTC()
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
