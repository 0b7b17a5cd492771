// Package observability holds the service-level Prometheus collectors.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	workoutsLoggedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "levelup",
		Subsystem: "progression",
		Name:      "workouts_logged_total",
		Help:      "Number of workouts accepted, labeled by exercise type.",
	}, []string{"exercise_type"})

	questsGeneratedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "levelup",
		Subsystem: "progression",
		Name:      "quests_generated_total",
		Help:      "Number of daily quest instances created.",
	})

	questsCompletedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "levelup",
		Subsystem: "progression",
		Name:      "quests_completed_total",
		Help:      "Number of quest instances that reached their target.",
	})

	levelUpsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "levelup",
		Subsystem: "progression",
		Name:      "level_ups_total",
		Help:      "Number of levels gained across all users.",
	})

	achievementsUnlockedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "levelup",
		Subsystem: "progression",
		Name:      "achievements_unlocked_total",
		Help:      "Number of achievement unlock edges.",
	})
)

func init() {
	prometheus.MustRegister(
		workoutsLoggedCounter,
		questsGeneratedCounter,
		questsCompletedCounter,
		levelUpsCounter,
		achievementsUnlockedCounter,
	)
}

// RecordWorkoutLogged counts an accepted workout.
func RecordWorkoutLogged(exerciseType string) {
	workoutsLoggedCounter.WithLabelValues(exerciseType).Inc()
}

// RecordQuestsGenerated counts freshly created quest instances.
func RecordQuestsGenerated(n int) {
	questsGeneratedCounter.Add(float64(n))
}

// RecordQuestCompleted counts a quest completion edge.
func RecordQuestCompleted() {
	questsCompletedCounter.Inc()
}

// RecordLevelUps counts levels gained by a single reward application.
func RecordLevelUps(n int) {
	levelUpsCounter.Add(float64(n))
}

// RecordAchievementsUnlocked counts unlock edges.
func RecordAchievementsUnlocked(n int) {
	if n <= 0 {
		return
	}
	achievementsUnlockedCounter.Add(float64(n))
}
