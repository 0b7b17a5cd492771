package domain

import "time"

// UserSettings holds per-user notification, privacy, and app preferences.
type UserSettings struct {
	UserID                        string
	NotificationQuestReminders    bool
	NotificationLevelUp           bool
	NotificationAchievementUnlock bool
	PrivacyProfileVisible         bool
	PrivacyStatsVisible           bool
	AppTheme                      string
	AppUnits                      string
	AppLanguage                   string
	CreatedAt                     time.Time
	UpdatedAt                     time.Time
}

// DefaultSettings returns the settings record created lazily for new users.
func DefaultSettings(userID string, now time.Time) UserSettings {
	return UserSettings{
		UserID:                        userID,
		NotificationQuestReminders:    true,
		NotificationLevelUp:           true,
		NotificationAchievementUnlock: true,
		PrivacyProfileVisible:         true,
		PrivacyStatsVisible:           true,
		AppTheme:                      "dark",
		AppUnits:                      "metric",
		AppLanguage:                   "en",
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}
}
