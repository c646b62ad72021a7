// Package challenge holds the rules for personalized challenges: target
// generation from recent history, progress, and one-time completion.
package challenge

import (
	"math"
	"time"

	"github.com/google/uuid"

	"fitQuestAPI/internal/dates"
	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/challenge"
)

const (
	DefaultSteps        = 5000
	DefaultCalories     = 300
	DefaultDistance     = 3.0
	DefaultExerciseTime = 30

	DailyReward = 50

	// HistoryDays is how many calendar days, today included, feed
	// DefaultTargets.
	HistoryDays = 7

	growth = 1.2
)

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// DefaultTargets derives daily targets from recent entries: the per-entry
// mean of each metric raised by 20%, never below the fixed defaults.
// Distance is only targeted when the user has been covering some.
func DefaultTargets(history []*activity.Entry) []challenge.Target {
	avgSteps := float64(DefaultSteps)
	avgCalories := float64(DefaultCalories)
	avgDistance := DefaultDistance

	if n := len(history); n > 0 {
		t := activity.Sum(history)
		avgSteps = math.Round(float64(t.Steps) / float64(n))
		avgCalories = math.Round(float64(t.Calories) / float64(n))
		avgDistance = roundTenth(t.Distance / float64(n))
	}

	targets := []challenge.Target{
		{Type: activity.MetricSteps, Value: math.Max(DefaultSteps, math.Round(avgSteps*growth))},
		{Type: activity.MetricCalories, Value: math.Max(DefaultCalories, math.Round(avgCalories*growth))},
	}
	if avgDistance > 0 {
		targets = append(targets, challenge.Target{
			Type:  activity.MetricDistance,
			Value: math.Max(DefaultDistance, roundTenth(avgDistance*growth)),
		})
	}
	return targets
}

// Window returns the [start, end) span of a challenge of type t covering at.
func Window(at time.Time, t challenge.Type, loc *time.Location) (time.Time, time.Time) {
	if t == challenge.TypeWeekly {
		start := dates.StartOfWeek(at, loc)
		return start, start.AddDate(0, 0, 7)
	}
	start := dates.StartOfDay(at, loc)
	return start, start.AddDate(0, 0, 1)
}

func New(userID uuid.UUID, t challenge.Type, target challenge.Target, now time.Time, loc *time.Location) *challenge.Challenge {
	start, end := Window(now, t, loc)
	return &challenge.Challenge{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         t,
		Target:       target,
		StartDate:    start,
		EndDate:      end,
		PointsReward: DailyReward,
		CreatedAt:    now,
	}
}

// Progress is current/target as a whole percentage capped at 100.
func Progress(current, target float64) int {
	if target <= 0 {
		return 100
	}
	return int(math.Round(math.Min(current/target*100, 100)))
}

// Complete marks c done when current meets the target. It reports whether
// the challenge changed; a completed challenge is never touched again.
func Complete(c *challenge.Challenge, current float64, now time.Time) bool {
	if c.Completed || current < c.Target.Value {
		return false
	}
	c.Completed = true
	done := now
	c.CompletedDate = &done
	return true
}

func WithProgress(c *challenge.Challenge, totals activity.Totals) *challenge.WithProgress {
	current := totals.Value(c.Target.Type)
	return &challenge.WithProgress{
		Challenge:    c,
		CurrentValue: current,
		Progress:     Progress(current, c.Target.Value),
	}
}
