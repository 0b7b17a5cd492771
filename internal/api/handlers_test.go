package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"example.com/levelup/internal/auth"
	"example.com/levelup/internal/domain"
	"example.com/levelup/internal/persistence/memory"
)

func newTestMux() (*http.ServeMux, *memory.Repository) {
	repo := memory.NewRepository()
	service := domain.NewService(repo, domain.DefaultCatalog(), domain.DefaultServiceConfig())
	handler := NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux, repo
}

func authedRequest(method, target string, body string, scopes ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	scopeSet := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		scopeSet[s] = struct{}{}
	}
	claims := &auth.Claims{
		Subject:   "user-1",
		Scopes:    scopeSet,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func TestGenerateAndListQuests(t *testing.T) {
	mux, _ := newTestMux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPost, "/v1/quests/generate", "", auth.ScopeFitnessWrite))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var created ListQuestsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(created.Items) != 3 {
		t.Fatalf("expected 3 quests got %d", len(created.Items))
	}
	for _, q := range created.Items {
		if q.Status != "active" {
			t.Fatalf("expected active quest got %s", q.Status)
		}
		if q.CurrentProgress != 0 {
			t.Fatalf("fresh quest must start at 0, got %d", q.CurrentProgress)
		}
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodGet, "/v1/quests", "", auth.ScopeFitnessRead))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var listed ListQuestsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(listed.Items) != 3 {
		t.Fatalf("expected 3 quests got %d", len(listed.Items))
	}
}

func TestLogWorkoutCompletesQuest(t *testing.T) {
	mux, _ := newTestMux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPost, "/v1/quests/generate", "", auth.ScopeFitnessWrite))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rr.Code)
	}

	var created ListQuestsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	quest := created.Items[0]

	body := `{"quest_id":"` + quest.QuestID + `","exercise_type":"` + quest.ExerciseType + `","value":` + itoa(quest.TargetValue) + `}`
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPost, "/v1/workouts", body, auth.ScopeFitnessWrite))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var result LogWorkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.QuestCompleted {
		t.Fatal("expected quest completion")
	}
	if result.XPAwarded < quest.XPReward {
		t.Fatalf("expected at least the quest reward, got %d", result.XPAwarded)
	}
	if result.WorkoutID == "" {
		t.Fatal("expected workout id")
	}

	// The workout shows up in history.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodGet, "/v1/workouts?limit=10", "", auth.ScopeFitnessRead))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var history ListWorkoutsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &history); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(history.Items) != 1 || history.Items[0].WorkoutID != result.WorkoutID {
		t.Fatalf("expected logged workout in history, got %+v", history.Items)
	}

	// Profile reflects the applied rewards.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodGet, "/v1/profile", "", auth.ScopeFitnessRead))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var profile ProfileView
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if profile.TotalWorkouts != 1 || profile.TotalQuestsCompleted != 1 {
		t.Fatalf("unexpected counters: %+v", profile)
	}
	if profile.Gold == 0 {
		t.Fatal("expected gold from quest reward")
	}
}

func TestLogWorkoutValidationFailure(t *testing.T) {
	mux, _ := newTestMux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPost, "/v1/workouts", `{"exercise_type":"push_ups","value":0}`, auth.ScopeFitnessWrite))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestLogWorkoutUnknownQuest(t *testing.T) {
	mux, _ := newTestMux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPost, "/v1/workouts", `{"quest_id":"missing","exercise_type":"push_ups","value":10}`, auth.ScopeFitnessWrite))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestLogWorkoutRejectedOnCompletedQuest(t *testing.T) {
	mux, _ := newTestMux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPost, "/v1/quests/generate", "", auth.ScopeFitnessWrite))
	var created ListQuestsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	quest := created.Items[0]
	body := `{"quest_id":"` + quest.QuestID + `","exercise_type":"` + quest.ExerciseType + `","value":` + itoa(quest.TargetValue) + `}`

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPost, "/v1/workouts", body, auth.ScopeFitnessWrite))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPost, "/v1/workouts", body, auth.ScopeFitnessWrite))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rr.Code, rr.Body.String())
	}
	var errBody map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if errBody["type"] != "invalid_state" {
		t.Fatalf("expected invalid_state got %s", errBody["type"])
	}
}

func TestWorkoutRequiresWriteScope(t *testing.T) {
	mux, _ := newTestMux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPost, "/v1/workouts", `{"exercise_type":"push_ups","value":10}`, auth.ScopeFitnessRead))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestAchievementsListing(t *testing.T) {
	mux, _ := newTestMux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPost, "/v1/workouts", `{"exercise_type":"push_ups","value":10}`, auth.ScopeFitnessWrite))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodGet, "/v1/achievements", "", auth.ScopeFitnessRead))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var listed ListAchievementsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(listed.Items) != 9 {
		t.Fatalf("expected full catalog of 9, got %d", len(listed.Items))
	}

	var firstSteps *AchievementView
	for i := range listed.Items {
		if listed.Items[i].AchievementID == "first-steps" {
			firstSteps = &listed.Items[i]
		}
	}
	if firstSteps == nil || !firstSteps.Completed || firstSteps.UnlockedAt == nil {
		t.Fatalf("expected first-steps unlocked, got %+v", firstSteps)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	mux, _ := newTestMux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodGet, "/v1/settings", "", auth.ScopeFitnessRead))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var defaults SettingsView
	if err := json.Unmarshal(rr.Body.Bytes(), &defaults); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if defaults.AppTheme != "dark" || !defaults.NotificationLevelUp {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(http.MethodPut, "/v1/settings", `{"app_theme":"light","notification_level_up":false}`, auth.ScopeFitnessWrite))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var updated SettingsView
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.AppTheme != "light" || updated.NotificationLevelUp {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.AppUnits != "metric" {
		t.Fatalf("untouched field changed: %+v", updated)
	}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	mux, _ := newTestMux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
