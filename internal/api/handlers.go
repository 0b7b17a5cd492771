// Package api exposes HTTP handlers for the levelup service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/levelup/internal/auth"
	"example.com/levelup/internal/domain"
	"example.com/levelup/internal/persistence"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/quests", h.quests)
	mux.HandleFunc("/v1/quests/generate", h.generateQuests)
	mux.HandleFunc("/v1/workouts", h.workouts)
	mux.HandleFunc("/v1/profile", h.profile)
	mux.HandleFunc("/v1/achievements", h.achievements)
	mux.HandleFunc("/v1/settings", h.settings)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) quests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireScope(w, r, auth.ScopeFitnessRead, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	quests, err := h.service.ListActiveQuests(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]QuestView, 0, len(quests))
	for _, q := range quests {
		items = append(items, toQuestView(q))
	}
	writeJSON(w, http.StatusOK, ListQuestsResponse{Items: items})
}

func (h *Handler) generateQuests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	quests, err := h.service.GenerateDailyQuests(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]QuestView, 0, len(quests))
	for _, q := range quests {
		items = append(items, toQuestView(q))
	}
	writeJSON(w, http.StatusCreated, ListQuestsResponse{Items: items})
}

func (h *Handler) workouts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.logWorkout(w, r)
	case http.MethodGet:
		h.listWorkouts(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) logWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	var req LogWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	result, err := h.service.LogWorkout(r.Context(), domain.LogWorkoutInput{
		UserID:       claims.Subject,
		QuestID:      req.QuestID,
		ExerciseType: req.ExerciseType,
		Value:        req.Value,
		Notes:        req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	unlocked := make([]UnlockedAchievementView, 0, len(result.UnlockedAchievements))
	for _, a := range result.UnlockedAchievements {
		unlocked = append(unlocked, UnlockedAchievementView{
			AchievementID: a.ID,
			Name:          a.Name,
			Rarity:        a.Rarity,
			XPReward:      a.XPReward,
			GoldReward:    a.GoldReward,
		})
	}

	writeJSON(w, http.StatusCreated, LogWorkoutResponse{
		WorkoutID:            result.WorkoutID,
		NewProgress:          result.NewProgress,
		Target:               result.Target,
		QuestCompleted:       result.QuestCompleted,
		XPAwarded:            result.XPAwarded,
		GoldAwarded:          result.GoldAwarded,
		LeveledUp:            result.LeveledUp,
		NewLevel:             result.NewLevel,
		UnlockedAchievements: unlocked,
	})
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeFitnessRead, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	entries, next, err := h.service.ListWorkouts(r.Context(), claims.Subject, cursor, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]WorkoutView, 0, len(entries))
	for _, entry := range entries {
		items = append(items, WorkoutView{
			WorkoutID:    entry.ID,
			QuestID:      entry.QuestID,
			ExerciseType: entry.ExerciseType,
			Value:        entry.Value,
			Notes:        entry.Notes,
			LoggedAt:     entry.LoggedAt,
		})
	}

	writeJSON(w, http.StatusOK, ListWorkoutsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireScope(w, r, auth.ScopeFitnessRead, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	prog, err := h.service.GetProfile(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileView{
		UserID:               prog.UserID,
		Level:                prog.Level,
		XP:                   prog.XP,
		XPToNextLevel:        prog.XPToNextLevel,
		Gold:                 prog.Gold,
		Strength:             prog.Strength,
		Agility:              prog.Agility,
		Stamina:              prog.Stamina,
		Vitality:             prog.Vitality,
		TotalQuestsCompleted: prog.TotalQuestsCompleted,
		TotalWorkouts:        prog.TotalWorkouts,
		CurrentStreak:        prog.CurrentStreak,
		AvatarTier:           prog.AvatarTier,
	})
}

func (h *Handler) achievements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireScope(w, r, auth.ScopeFitnessRead, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	statuses, err := h.service.ListAchievements(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]AchievementView, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, AchievementView{
			AchievementID:    status.Achievement.ID,
			Name:             status.Achievement.Name,
			Description:      status.Achievement.Description,
			Category:         status.Achievement.Category,
			RequirementKind:  string(status.Achievement.RequirementKind),
			RequirementValue: status.Achievement.RequirementValue,
			XPReward:         status.Achievement.XPReward,
			GoldReward:       status.Achievement.GoldReward,
			Icon:             status.Achievement.Icon,
			Rarity:           status.Achievement.Rarity,
			CurrentProgress:  status.CurrentProgress,
			Completed:        status.Completed,
			UnlockedAt:       status.UnlockedAt,
		})
	}
	writeJSON(w, http.StatusOK, ListAchievementsResponse{Items: items})
}

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeFitnessRead, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := h.service.GetSettings(r.Context(), claims.Subject)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSettingsView(*settings))
	case http.MethodPut:
		h.updateSettings(w, r, claims.Subject)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request, userID string) {
	var req SettingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	current, err := h.service.GetSettings(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	merged := req.ApplyTo(*current)
	updated, err := h.service.UpdateSettings(r.Context(), merged)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsView(*updated))
}

func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+strings.Join(scopes, " or ")+" required")
	return nil, false
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "concurrent update, retry the request")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// LogWorkoutRequest is the payload for POST /v1/workouts.
type LogWorkoutRequest struct {
	QuestID      string `json:"quest_id,omitempty"`
	ExerciseType string `json:"exercise_type"`
	Value        int    `json:"value"`
	Notes        string `json:"notes,omitempty"`
}

// Validate ensures request correctness.
func (r LogWorkoutRequest) Validate() error {
	if strings.TrimSpace(r.ExerciseType) == "" {
		return errors.New("exercise_type is required")
	}
	if r.Value <= 0 {
		return errors.New("value must be > 0")
	}
	return nil
}

// LogWorkoutResponse describes the response body for a logged workout.
type LogWorkoutResponse struct {
	WorkoutID            string                    `json:"workout_id"`
	NewProgress          int                       `json:"new_progress"`
	Target               int                       `json:"target"`
	QuestCompleted       bool                      `json:"quest_completed"`
	XPAwarded            int                       `json:"xp_awarded"`
	GoldAwarded          int                       `json:"gold_awarded"`
	LeveledUp            bool                      `json:"leveled_up"`
	NewLevel             int                       `json:"new_level"`
	UnlockedAchievements []UnlockedAchievementView `json:"unlocked_achievements"`
}

// UnlockedAchievementView summarises an achievement unlocked by a workout.
type UnlockedAchievementView struct {
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Rarity        string `json:"rarity"`
	XPReward      int    `json:"xp_reward"`
	GoldReward    int    `json:"gold_reward"`
}

// QuestView exposes a quest instance.
type QuestView struct {
	QuestID         string    `json:"quest_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ExerciseType    string    `json:"exercise_type"`
	TargetValue     int       `json:"target_value"`
	CurrentProgress int       `json:"current_progress"`
	XPReward        int       `json:"xp_reward"`
	GoldReward      int       `json:"gold_reward"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// ListQuestsResponse packages quest list results.
type ListQuestsResponse struct {
	Items []QuestView `json:"items"`
}

// WorkoutView exposes one workout log entry.
type WorkoutView struct {
	WorkoutID    string    `json:"workout_id"`
	QuestID      string    `json:"quest_id,omitempty"`
	ExerciseType string    `json:"exercise_type"`
	Value        int       `json:"value"`
	Notes        string    `json:"notes,omitempty"`
	LoggedAt     time.Time `json:"logged_at"`
}

// ListWorkoutsResponse packages workout history results.
type ListWorkoutsResponse struct {
	Items      []WorkoutView `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ProfileView exposes the user's progression record.
type ProfileView struct {
	UserID               string `json:"user_id"`
	Level                int    `json:"level"`
	XP                   int    `json:"xp"`
	XPToNextLevel        int    `json:"xp_to_next_level"`
	Gold                 int    `json:"gold"`
	Strength             int    `json:"strength"`
	Agility              int    `json:"agility"`
	Stamina              int    `json:"stamina"`
	Vitality             int    `json:"vitality"`
	TotalQuestsCompleted int    `json:"total_quests_completed"`
	TotalWorkouts        int    `json:"total_workouts"`
	CurrentStreak        int    `json:"current_streak"`
	AvatarTier           string `json:"avatar_tier"`
}

// AchievementView pairs an achievement with the caller's progress.
type AchievementView struct {
	AchievementID    string     `json:"achievement_id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Category         string     `json:"category"`
	RequirementKind  string     `json:"requirement_kind"`
	RequirementValue int        `json:"requirement_value"`
	XPReward         int        `json:"xp_reward"`
	GoldReward       int        `json:"gold_reward"`
	Icon             string     `json:"icon"`
	Rarity           string     `json:"rarity"`
	CurrentProgress  int        `json:"current_progress"`
	Completed        bool       `json:"completed"`
	UnlockedAt       *time.Time `json:"unlocked_at,omitempty"`
}

// ListAchievementsResponse packages the achievement catalog.
type ListAchievementsResponse struct {
	Items []AchievementView `json:"items"`
}

// SettingsView exposes user settings.
type SettingsView struct {
	NotificationQuestReminders    bool   `json:"notification_quest_reminders"`
	NotificationLevelUp           bool   `json:"notification_level_up"`
	NotificationAchievementUnlock bool   `json:"notification_achievement_unlock"`
	PrivacyProfileVisible         bool   `json:"privacy_profile_visible"`
	PrivacyStatsVisible           bool   `json:"privacy_stats_visible"`
	AppTheme                      string `json:"app_theme"`
	AppUnits                      string `json:"app_units"`
	AppLanguage                   string `json:"app_language"`
}

// SettingsUpdateRequest carries a partial settings update; absent fields keep
// their current values.
type SettingsUpdateRequest struct {
	NotificationQuestReminders    *bool   `json:"notification_quest_reminders,omitempty"`
	NotificationLevelUp           *bool   `json:"notification_level_up,omitempty"`
	NotificationAchievementUnlock *bool   `json:"notification_achievement_unlock,omitempty"`
	PrivacyProfileVisible         *bool   `json:"privacy_profile_visible,omitempty"`
	PrivacyStatsVisible           *bool   `json:"privacy_stats_visible,omitempty"`
	AppTheme                      *string `json:"app_theme,omitempty"`
	AppUnits                      *string `json:"app_units,omitempty"`
	AppLanguage                   *string `json:"app_language,omitempty"`
}

// ApplyTo merges the update onto the current settings.
func (r SettingsUpdateRequest) ApplyTo(current domain.UserSettings) domain.UserSettings {
	if r.NotificationQuestReminders != nil {
		current.NotificationQuestReminders = *r.NotificationQuestReminders
	}
	if r.NotificationLevelUp != nil {
		current.NotificationLevelUp = *r.NotificationLevelUp
	}
	if r.NotificationAchievementUnlock != nil {
		current.NotificationAchievementUnlock = *r.NotificationAchievementUnlock
	}
	if r.PrivacyProfileVisible != nil {
		current.PrivacyProfileVisible = *r.PrivacyProfileVisible
	}
	if r.PrivacyStatsVisible != nil {
		current.PrivacyStatsVisible = *r.PrivacyStatsVisible
	}
	if r.AppTheme != nil {
		current.AppTheme = *r.AppTheme
	}
	if r.AppUnits != nil {
		current.AppUnits = *r.AppUnits
	}
	if r.AppLanguage != nil {
		current.AppLanguage = *r.AppLanguage
	}
	return current
}

func toQuestView(q domain.QuestInstance) QuestView {
	return QuestView{
		QuestID:         q.ID,
		Title:           q.Title,
		Description:     q.Description,
		ExerciseType:    q.ExerciseType,
		TargetValue:     q.TargetValue,
		CurrentProgress: q.CurrentProgress,
		XPReward:        q.XPReward,
		GoldReward:      q.GoldReward,
		Status:          string(q.Status),
		CreatedAt:       q.CreatedAt,
		ExpiresAt:       q.ExpiresAt,
	}
}

func toSettingsView(s domain.UserSettings) SettingsView {
	return SettingsView{
		NotificationQuestReminders:    s.NotificationQuestReminders,
		NotificationLevelUp:           s.NotificationLevelUp,
		NotificationAchievementUnlock: s.NotificationAchievementUnlock,
		PrivacyProfileVisible:         s.PrivacyProfileVisible,
		PrivacyStatsVisible:           s.PrivacyStatsVisible,
		AppTheme:                      s.AppTheme,
		AppUnits:                      s.AppUnits,
		AppLanguage:                   s.AppLanguage,
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
