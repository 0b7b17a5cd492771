//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/levelup/internal/domain"
	"example.com/levelup/internal/events"
)

func TestRepositoryCommitWorkout(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("levelup"),
		postgrescontainer.WithUsername("levelup"),
		postgrescontainer.WithPassword("levelup"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo := NewRepository(pool)

	userID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)

	quest := domain.NewQuestInstance(userID, domain.QuestTemplate{
		Title:        "Push Your Limits",
		Description:  "Complete 20 push-ups",
		ExerciseType: "push_ups",
		TargetValue:  20,
		XPReward:     50,
		GoldReward:   25,
	}, now)

	require.NoError(t, repo.ReplaceDailyQuests(ctx, userID, []domain.QuestInstance{quest}))

	active, err := repo.ListActiveQuests(ctx, userID)
	require.NoError(t, err)
	require.Len(t, active, 1)

	stored, err := repo.GetQuest(ctx, userID, quest.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, int64(1), stored.Version)

	// Apply a completing workout.
	completed, err := stored.ApplyProgress(20)
	require.NoError(t, err)
	require.True(t, completed)

	prog := domain.NewProgression(userID, domain.DefaultCurve(), now)
	prog.RecordWorkoutDay(now)
	prog.ApplyReward(stored.Reward(), domain.DefaultCurve(), 2)
	prog.TotalQuestsCompleted++

	workout := domain.WorkoutLogEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		QuestID:      quest.ID,
		ExerciseType: "push_ups",
		Value:        20,
		LoggedAt:     now,
	}

	commit := domain.WorkoutCommit{
		UserID:                     userID,
		Workout:                    workout,
		Quest:                      stored,
		ExpectedQuestVersion:       1,
		Progression:                prog,
		ExpectedProgressionVersion: prog.Version,
		ProgressionIsNew:           true,
		Events: []domain.OutboxEvent{{
			EventType:     domain.EventQuestCompleted,
			AggregateType: "quest",
			AggregateID:   quest.ID,
			PartitionKey:  userID,
			Payload: events.QuestCompleted{
				QuestID:      quest.ID,
				UserID:       userID,
				Title:        quest.Title,
				ExerciseType: quest.ExerciseType,
				XPReward:     50,
				GoldReward:   25,
				CompletedAt:  now,
			},
		}},
	}

	require.NoError(t, repo.CommitWorkout(ctx, commit))

	// The quest version advanced, so replaying the same commit conflicts.
	require.ErrorIs(t, repo.CommitWorkout(ctx, commit), domain.ErrConflict)

	after, err := repo.GetQuest(ctx, userID, quest.ID)
	require.NoError(t, err)
	require.Equal(t, domain.QuestStatusCompleted, after.Status)
	require.Equal(t, int64(2), after.Version)

	storedProg, err := repo.GetProgression(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, storedProg)
	require.Equal(t, 1, storedProg.TotalQuestsCompleted)
	require.Equal(t, 1, storedProg.CurrentStreak)

	history, _, err := repo.ListWorkouts(ctx, userID, nil, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, workout.ID, history[0].ID)

	var outboxCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE user_id=$1 AND published_at IS NULL`, userID).Scan(&outboxCount))
	require.Equal(t, 1, outboxCount)
}

func TestRepositorySettingsAndAchievements(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("levelup"),
		postgrescontainer.WithUsername("levelup"),
		postgrescontainer.WithPassword("levelup"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo := NewRepository(pool)

	catalog, err := repo.ListAchievements(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 9)

	userID := uuid.NewString()
	missing, err := repo.GetSettings(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, missing)

	now := time.Now().UTC().Truncate(time.Microsecond)
	settings := domain.DefaultSettings(userID, now)
	require.NoError(t, repo.UpsertSettings(ctx, settings))

	settings.AppTheme = "light"
	settings.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, repo.UpsertSettings(ctx, settings))

	stored, err := repo.GetSettings(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "light", stored.AppTheme)
	require.True(t, stored.NotificationLevelUp)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
