package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	pointsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_points_applied_total",
			Help: "Points moved on user totals after clamping, by source and direction.",
		},
		[]string{"source", "direction"},
	)

	badgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_badges_awarded_total",
			Help: "Badges awarded, by badge name.",
		},
		[]string{"badge"},
	)

	challengesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_challenges_completed_total",
			Help: "Challenges completed, by target type.",
		},
		[]string{"target"},
	)

	versionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gamification_version_conflicts_total",
			Help: "Commits retried because the user changed underneath them.",
		},
	)

	engineFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_failures_total",
			Help: "Gamification operations that gave up with an error.",
		},
		[]string{"operation"},
	)

	eventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gamification_events_dropped_total",
			Help: "Events discarded because the dispatch queue was full.",
		},
	)
)

// RegisterMetrics exposes the gamification collectors on reg. Call it once.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(pointsApplied, badgesAwarded, challengesCompleted, versionConflicts, engineFailures, eventsDropped)
}
