// Package memory provides an in-memory Repository for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"example.com/levelup/internal/domain"
)

// Repository keeps all records in process memory. Commit semantics mirror
// the Postgres implementation: the whole workout write set applies under one
// lock, and stale expected versions surface as ErrConflict.
type Repository struct {
	mu           sync.Mutex
	quests       map[string]domain.QuestInstance
	workouts     []domain.WorkoutLogEntry
	progressions map[string]domain.UserProgression
	achievements []domain.Achievement
	userProgress map[string]map[string]domain.UserAchievementProgress
	settings     map[string]domain.UserSettings
	events       []domain.OutboxEvent
}

// NewRepository constructs a repository seeded with the default achievement catalog.
func NewRepository() *Repository {
	return &Repository{
		quests:       make(map[string]domain.QuestInstance),
		progressions: make(map[string]domain.UserProgression),
		achievements: domain.DefaultAchievements(),
		userProgress: make(map[string]map[string]domain.UserAchievementProgress),
		settings:     make(map[string]domain.UserSettings),
	}
}

// ReplaceDailyQuests implements domain.Repository.
func (r *Repository) ReplaceDailyQuests(ctx context.Context, userID string, quests []domain.QuestInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, q := range r.quests {
		if q.UserID == userID && q.Status == domain.QuestStatusActive {
			delete(r.quests, id)
		}
	}
	for _, q := range quests {
		r.quests[q.ID] = q
	}
	return nil
}

// ListActiveQuests implements domain.Repository.
func (r *Repository) ListActiveQuests(ctx context.Context, userID string) ([]domain.QuestInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.QuestInstance, 0)
	for _, q := range r.quests {
		if q.UserID == userID && q.Status == domain.QuestStatusActive {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetQuest implements domain.Repository.
func (r *Repository) GetQuest(ctx context.Context, userID, questID string) (*domain.QuestInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.quests[questID]
	if !ok || q.UserID != userID {
		return nil, nil
	}
	return &q, nil
}

// CommitWorkout implements domain.Repository.
func (r *Repository) CommitWorkout(ctx context.Context, commit domain.WorkoutCommit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if commit.Quest != nil {
		stored, ok := r.quests[commit.Quest.ID]
		if !ok {
			return fmt.Errorf("%w: quest %s", domain.ErrNotFound, commit.Quest.ID)
		}
		if stored.Version != commit.ExpectedQuestVersion {
			return domain.ErrConflict
		}
	}

	if !commit.ProgressionIsNew {
		stored, ok := r.progressions[commit.UserID]
		if !ok || stored.Version != commit.ExpectedProgressionVersion {
			return domain.ErrConflict
		}
	} else if _, exists := r.progressions[commit.UserID]; exists {
		return domain.ErrConflict
	}

	if commit.Quest != nil {
		updated := *commit.Quest
		updated.Version = commit.ExpectedQuestVersion + 1
		r.quests[updated.ID] = updated
	}

	prog := commit.Progression
	prog.Version = commit.ExpectedProgressionVersion + 1
	r.progressions[commit.UserID] = prog

	r.workouts = append(r.workouts, commit.Workout)

	rows := r.userProgress[commit.UserID]
	if rows == nil {
		rows = make(map[string]domain.UserAchievementProgress)
		r.userProgress[commit.UserID] = rows
	}
	for _, row := range commit.AchievementProgress {
		rows[row.AchievementID] = row
	}

	r.events = append(r.events, commit.Events...)
	return nil
}

// ListWorkouts implements domain.Repository.
func (r *Repository) ListWorkouts(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.WorkoutLogEntry, *domain.Cursor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]domain.WorkoutLogEntry, 0)
	for _, w := range r.workouts {
		if w.UserID != userID {
			continue
		}
		if cursor != nil {
			if w.LoggedAt.After(cursor.LoggedAt) {
				continue
			}
			if w.LoggedAt.Equal(cursor.LoggedAt) && w.ID >= cursor.ID {
				continue
			}
		}
		entries = append(entries, w)
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LoggedAt.Equal(entries[j].LoggedAt) {
			return entries[i].LoggedAt.After(entries[j].LoggedAt)
		}
		return entries[i].ID > entries[j].ID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	var next *domain.Cursor
	if limit > 0 && len(entries) == limit {
		last := entries[len(entries)-1]
		next = &domain.Cursor{LoggedAt: last.LoggedAt, ID: last.ID}
	}
	return entries, next, nil
}

// GetProgression implements domain.Repository.
func (r *Repository) GetProgression(ctx context.Context, userID string) (*domain.UserProgression, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prog, ok := r.progressions[userID]
	if !ok {
		return nil, nil
	}
	return &prog, nil
}

// ListAchievements implements domain.Repository.
func (r *Repository) ListAchievements(ctx context.Context) ([]domain.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Achievement, len(r.achievements))
	copy(out, r.achievements)
	return out, nil
}

// ListUserAchievements implements domain.Repository.
func (r *Repository) ListUserAchievements(ctx context.Context, userID string) ([]domain.UserAchievementProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.userProgress[userID]
	out := make([]domain.UserAchievementProgress, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AchievementID < out[j].AchievementID })
	return out, nil
}

// GetSettings implements domain.Repository.
func (r *Repository) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	settings, ok := r.settings[userID]
	if !ok {
		return nil, nil
	}
	return &settings, nil
}

// UpsertSettings implements domain.Repository.
func (r *Repository) UpsertSettings(ctx context.Context, settings domain.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settings[settings.UserID] = settings
	return nil
}

// Events returns a copy of the recorded outbox events, oldest first.
func (r *Repository) Events() []domain.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.OutboxEvent, len(r.events))
	copy(out, r.events)
	return out
}
