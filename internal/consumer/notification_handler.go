package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/levelup/internal/events"
)

// NotificationHandler turns progression events into notification rows,
// honouring the per-user notification preferences.
type NotificationHandler struct {
	pool *pgxpool.Pool
}

// NewNotificationHandler constructs a handler backed by the provided pool.
func NewNotificationHandler(pool *pgxpool.Pool) *NotificationHandler {
	return &NotificationHandler{pool: pool}
}

// Handle routes a decoded event to its notification builder. Unknown event
// types are skipped rather than failed so new producers can roll out first.
func (h *NotificationHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case "quest.completed":
		return h.handleQuestCompleted(ctx, msg.Payload)
	case "user.leveled_up":
		return h.handleLeveledUp(ctx, msg.Payload)
	case "achievement.unlocked":
		return h.handleAchievementUnlocked(ctx, msg.Payload)
	default:
		return nil
	}
}

func (h *NotificationHandler) handleQuestCompleted(ctx context.Context, payload json.RawMessage) error {
	var event events.QuestCompleted
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode quest.completed: %w", err)
	}

	enabled, err := h.notificationsEnabled(ctx, event.UserID, "notification_quest_reminders")
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	title := "Quest complete!"
	body := fmt.Sprintf("%s finished: +%d XP, +%d gold", event.Title, event.XPReward, event.GoldReward)
	return h.insert(ctx, event.UserID, "quest_completed", title, body)
}

func (h *NotificationHandler) handleLeveledUp(ctx context.Context, payload json.RawMessage) error {
	var event events.UserLeveledUp
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode user.leveled_up: %w", err)
	}

	enabled, err := h.notificationsEnabled(ctx, event.UserID, "notification_level_up")
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	title := fmt.Sprintf("Level %d reached!", event.NewLevel)
	body := fmt.Sprintf("You climbed from level %d to %d. Avatar tier: %s.", event.OldLevel, event.NewLevel, event.AvatarTier)
	return h.insert(ctx, event.UserID, "level_up", title, body)
}

func (h *NotificationHandler) handleAchievementUnlocked(ctx context.Context, payload json.RawMessage) error {
	var event events.AchievementUnlocked
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode achievement.unlocked: %w", err)
	}

	enabled, err := h.notificationsEnabled(ctx, event.UserID, "notification_achievement_unlock")
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	title := "Achievement unlocked!"
	body := fmt.Sprintf("%s (%s): +%d XP, +%d gold", event.Name, event.Rarity, event.XPReward, event.GoldReward)
	return h.insert(ctx, event.UserID, "achievement_unlocked", title, body)
}

// notificationsEnabled looks up one settings flag. Users without a settings
// row get the defaults, which leave every notification on.
func (h *NotificationHandler) notificationsEnabled(ctx context.Context, userID, column string) (bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_settings WHERE user_id = $1`, column)

	var enabled bool
	err := h.pool.QueryRow(ctx, query, userID).Scan(&enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		return false, err
	}
	return enabled, nil
}

func (h *NotificationHandler) insert(ctx context.Context, userID, kind, title, body string) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO notifications (user_id, kind, title, body, created_at)
         VALUES ($1, $2, $3, $4, NOW())`,
		userID, kind, title, body,
	)
	return err
}
