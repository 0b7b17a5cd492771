// Package postgres provides pgx-backed persistence for quests, workouts,
// progression, achievements, settings, and the transactional outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/levelup/internal/domain"
)

// Repository implements domain.Repository on top of a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const questColumns = `quest_id, user_id, title, description, exercise_type, target_value, current_progress, xp_reward, gold_reward, status, version, created_at, expires_at`

func scanQuest(row pgx.Row) (*domain.QuestInstance, error) {
	var q domain.QuestInstance
	if err := row.Scan(&q.ID, &q.UserID, &q.Title, &q.Description, &q.ExerciseType, &q.TargetValue, &q.CurrentProgress, &q.XPReward, &q.GoldReward, &q.Status, &q.Version, &q.CreatedAt, &q.ExpiresAt); err != nil {
		return nil, err
	}
	return &q, nil
}

// ReplaceDailyQuests swaps the user's active daily quests for the fresh batch
// in one transaction.
func (r *Repository) ReplaceDailyQuests(ctx context.Context, userID string, quests []domain.QuestInstance) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM quests WHERE user_id=$1 AND status=$2`, userID, domain.QuestStatusActive); err != nil {
		return err
	}

	const insert = `INSERT INTO quests (` + questColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	for _, q := range quests {
		if _, err := tx.Exec(ctx, insert,
			q.ID, q.UserID, q.Title, q.Description, q.ExerciseType, q.TargetValue, q.CurrentProgress,
			q.XPReward, q.GoldReward, q.Status, q.Version, q.CreatedAt, q.ExpiresAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListActiveQuests returns the user's active instances, oldest first.
func (r *Repository) ListActiveQuests(ctx context.Context, userID string) ([]domain.QuestInstance, error) {
	const query = `SELECT ` + questColumns + ` FROM quests WHERE user_id=$1 AND status=$2 ORDER BY created_at, quest_id`

	rows, err := r.pool.Query(ctx, query, userID, domain.QuestStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.QuestInstance, 0)
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// GetQuest fetches one instance scoped to its owner. Returns nil when absent.
func (r *Repository) GetQuest(ctx context.Context, userID, questID string) (*domain.QuestInstance, error) {
	const query = `SELECT ` + questColumns + ` FROM quests WHERE user_id=$1 AND quest_id=$2`

	q, err := scanQuest(r.pool.QueryRow(ctx, query, userID, questID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return q, nil
}

// CommitWorkout applies the full write set of one workout submission in a
// single transaction. Version predicates on the quest and progression rows
// turn lost races into domain.ErrConflict with no partial state.
func (r *Repository) CommitWorkout(ctx context.Context, commit domain.WorkoutCommit) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if commit.Quest != nil {
		tag, err := tx.Exec(ctx,
			`UPDATE quests SET current_progress=$1, status=$2, version=version+1
             WHERE quest_id=$3 AND user_id=$4 AND version=$5`,
			commit.Quest.CurrentProgress, commit.Quest.Status,
			commit.Quest.ID, commit.UserID, commit.ExpectedQuestVersion,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrConflict
		}
	}

	if err := r.writeProgression(ctx, tx, commit); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO workout_logs (workout_id, user_id, quest_id, exercise_type, value, notes, logged_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		commit.Workout.ID, commit.Workout.UserID, nullIfEmpty(commit.Workout.QuestID),
		commit.Workout.ExerciseType, commit.Workout.Value, nullIfEmpty(commit.Workout.Notes), commit.Workout.LoggedAt,
	); err != nil {
		return err
	}

	for _, row := range commit.AchievementProgress {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_achievements (id, user_id, achievement_id, current_progress, completed, unlocked_at)
             VALUES ($1,$2,$3,$4,$5,$6)
             ON CONFLICT (user_id, achievement_id)
             DO UPDATE SET current_progress=EXCLUDED.current_progress, completed=EXCLUDED.completed, unlocked_at=EXCLUDED.unlocked_at`,
			row.ID, row.UserID, row.AchievementID, row.CurrentProgress, row.Completed, row.UnlockedAt,
		); err != nil {
			return err
		}
	}

	for _, event := range commit.Events {
		if err := insertOutbox(ctx, tx, commit.UserID, event); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *Repository) writeProgression(ctx context.Context, tx pgx.Tx, commit domain.WorkoutCommit) error {
	p := commit.Progression

	if commit.ProgressionIsNew {
		tag, err := tx.Exec(ctx,
			`INSERT INTO user_progression (user_id, level, xp, xp_to_next_level, gold, strength, agility, stamina, vitality,
                total_quests_completed, total_workouts, current_streak, last_workout_day, avatar_tier, version, created_at, updated_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
             ON CONFLICT (user_id) DO NOTHING`,
			p.UserID, p.Level, p.XP, p.XPToNextLevel, p.Gold, p.Strength, p.Agility, p.Stamina, p.Vitality,
			p.TotalQuestsCompleted, p.TotalWorkouts, p.CurrentStreak, nullIfZeroTime(p.LastWorkoutDay), p.AvatarTier,
			p.Version, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			// Another submission created the record first.
			return domain.ErrConflict
		}
		return nil
	}

	tag, err := tx.Exec(ctx,
		`UPDATE user_progression SET level=$1, xp=$2, xp_to_next_level=$3, gold=$4, strength=$5, agility=$6, stamina=$7,
            vitality=$8, total_quests_completed=$9, total_workouts=$10, current_streak=$11, last_workout_day=$12,
            avatar_tier=$13, version=version+1, updated_at=$14
         WHERE user_id=$15 AND version=$16`,
		p.Level, p.XP, p.XPToNextLevel, p.Gold, p.Strength, p.Agility, p.Stamina, p.Vitality,
		p.TotalQuestsCompleted, p.TotalWorkouts, p.CurrentStreak, nullIfZeroTime(p.LastWorkoutDay),
		p.AvatarTier, p.UpdatedAt, p.UserID, commit.ExpectedProgressionVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, userID string, event domain.OutboxEvent) error {
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[event.EventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", event.EventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s:%s", userID, event.AggregateID, event.EventType)

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		userID,
		event.AggregateType,
		event.AggregateID,
		event.EventType,
		meta.Topic,
		meta.SchemaSubject,
		event.PartitionKey,
		body,
		dedupeKey,
	)
	return err
}

// ListWorkouts returns workout history for a user ordered by time, newest first.
func (r *Repository) ListWorkouts(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.WorkoutLogEntry, *domain.Cursor, error) {
	args := []interface{}{userID, limit}
	query := `SELECT workout_id, user_id, COALESCE(quest_id, ''), exercise_type, value, COALESCE(notes, ''), logged_at
        FROM workout_logs WHERE user_id=$1`

	if cursor != nil {
		query += ` AND (logged_at, workout_id) < ($3, $4)`
		args = append(args, cursor.LoggedAt, cursor.ID)
	}

	query += ` ORDER BY logged_at DESC, workout_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.WorkoutLogEntry, 0, limit)
	for rows.Next() {
		var w domain.WorkoutLogEntry
		if err := rows.Scan(&w.ID, &w.UserID, &w.QuestID, &w.ExerciseType, &w.Value, &w.Notes, &w.LoggedAt); err != nil {
			return nil, nil, err
		}
		results = append(results, w)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		next = &domain.Cursor{LoggedAt: last.LoggedAt, ID: last.ID}
	}
	return results, next, nil
}

// GetProgression fetches the user's progression record. Returns nil when absent.
func (r *Repository) GetProgression(ctx context.Context, userID string) (*domain.UserProgression, error) {
	const query = `SELECT user_id, level, xp, xp_to_next_level, gold, strength, agility, stamina, vitality,
            total_quests_completed, total_workouts, current_streak, last_workout_day, avatar_tier, version, created_at, updated_at
        FROM user_progression WHERE user_id=$1`

	var p domain.UserProgression
	var lastDay *time.Time
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Level, &p.XP, &p.XPToNextLevel, &p.Gold, &p.Strength, &p.Agility, &p.Stamina, &p.Vitality,
		&p.TotalQuestsCompleted, &p.TotalWorkouts, &p.CurrentStreak, &lastDay, &p.AvatarTier, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if lastDay != nil {
		p.LastWorkoutDay = *lastDay
	}
	return &p, nil
}

// ListAchievements returns the achievement catalog.
func (r *Repository) ListAchievements(ctx context.Context) ([]domain.Achievement, error) {
	const query = `SELECT achievement_id, name, description, category, requirement_kind, requirement_value,
            COALESCE(exercise_type, ''), xp_reward, gold_reward, icon, rarity
        FROM achievements ORDER BY achievement_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Achievement, 0)
	for rows.Next() {
		var a domain.Achievement
		var rawKind string
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Category, &rawKind, &a.RequirementValue,
			&a.ExerciseType, &a.XPReward, &a.GoldReward, &a.Icon, &a.Rarity); err != nil {
			return nil, err
		}
		kind, err := domain.ParseRequirementKind(rawKind)
		if err != nil {
			return nil, err
		}
		a.RequirementKind = kind
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListUserAchievements returns the user's achievement progress rows.
func (r *Repository) ListUserAchievements(ctx context.Context, userID string) ([]domain.UserAchievementProgress, error) {
	const query = `SELECT id, user_id, achievement_id, current_progress, completed, unlocked_at
        FROM user_achievements WHERE user_id=$1 ORDER BY achievement_id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.UserAchievementProgress, 0)
	for rows.Next() {
		var row domain.UserAchievementProgress
		if err := rows.Scan(&row.ID, &row.UserID, &row.AchievementID, &row.CurrentProgress, &row.Completed, &row.UnlockedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetSettings fetches the user's settings. Returns nil when absent.
func (r *Repository) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	const query = `SELECT user_id, notification_quest_reminders, notification_level_up, notification_achievement_unlock,
            privacy_profile_visible, privacy_stats_visible, app_theme, app_units, app_language, created_at, updated_at
        FROM user_settings WHERE user_id=$1`

	var s domain.UserSettings
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.UserID, &s.NotificationQuestReminders, &s.NotificationLevelUp, &s.NotificationAchievementUnlock,
		&s.PrivacyProfileVisible, &s.PrivacyStatsVisible, &s.AppTheme, &s.AppUnits, &s.AppLanguage, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// UpsertSettings stores the full settings record.
func (r *Repository) UpsertSettings(ctx context.Context, s domain.UserSettings) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, notification_quest_reminders, notification_level_up, notification_achievement_unlock,
            privacy_profile_visible, privacy_stats_visible, app_theme, app_units, app_language, created_at, updated_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
         ON CONFLICT (user_id) DO UPDATE SET
            notification_quest_reminders=EXCLUDED.notification_quest_reminders,
            notification_level_up=EXCLUDED.notification_level_up,
            notification_achievement_unlock=EXCLUDED.notification_achievement_unlock,
            privacy_profile_visible=EXCLUDED.privacy_profile_visible,
            privacy_stats_visible=EXCLUDED.privacy_stats_visible,
            app_theme=EXCLUDED.app_theme,
            app_units=EXCLUDED.app_units,
            app_language=EXCLUDED.app_language,
            updated_at=EXCLUDED.updated_at`,
		s.UserID, s.NotificationQuestReminders, s.NotificationLevelUp, s.NotificationAchievementUnlock,
		s.PrivacyProfileVisible, s.PrivacyStatsVisible, s.AppTheme, s.AppUnits, s.AppLanguage, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullIfZeroTime(value time.Time) interface{} {
	if value.IsZero() {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	domain.EventWorkoutLogged: {
		Topic:         "workout_events",
		SchemaSubject: "workout_events-value",
	},
	domain.EventQuestCompleted: {
		Topic:         "quest_events",
		SchemaSubject: "quest_events-value",
	},
	domain.EventUserLeveledUp: {
		Topic:         "progression_events",
		SchemaSubject: "progression_events-value",
	},
	domain.EventAchievementUnlocked: {
		Topic:         "achievement_events",
		SchemaSubject: "achievement_events-value",
	},
}
