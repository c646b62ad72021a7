// Package scoring turns one activity entry into points.
package scoring

import (
	"math"

	"fitQuestAPI/internal/types/activity"
)

const (
	StepsCap        = 100
	DistanceCap     = 50
	ExerciseTimeCap = 60
	CaloriesCap     = 50

	DiversityBonus     = 10
	FullDiversityBonus = 10

	StreakBonusPerDay = 10
	StreakBonusCap    = 50

	// MaxPoints is the most a single entry can earn.
	MaxPoints = StepsCap + DistanceCap + ExerciseTimeCap + CaloriesCap +
		DiversityBonus + FullDiversityBonus + StreakBonusCap
)

type Breakdown struct {
	Steps        int `json:"steps"`
	Distance     int `json:"distance"`
	ExerciseTime int `json:"exercise_time"`
	Calories     int `json:"calories"`
	Diversity    int `json:"diversity"`
	Streak       int `json:"streak"`
	Total        int `json:"total"`
}

func capped(v float64, limit int) int {
	p := int(math.Floor(v))
	if p < 0 {
		return 0
	}
	if p > limit {
		return limit
	}
	return p
}

// Explain scores m for a user currently on streakDays and reports each
// component. Inputs must already be validated as non-negative.
func Explain(m activity.Metrics, streakDays int) Breakdown {
	b := Breakdown{
		Steps:        capped(float64(m.Steps)/100, StepsCap),
		Distance:     capped(m.Distance*10, DistanceCap),
		ExerciseTime: capped(m.ExerciseTime*2, ExerciseTimeCap),
		Calories:     capped(float64(m.Calories)/10, CaloriesCap),
	}

	active := m.ActiveCount()
	if active >= 2 {
		b.Diversity += DiversityBonus
	}
	if active == 4 {
		b.Diversity += FullDiversityBonus
	}

	if streakDays > 0 {
		b.Streak = min(streakDays*StreakBonusPerDay, StreakBonusCap)
	}

	b.Total = b.Steps + b.Distance + b.ExerciseTime + b.Calories + b.Diversity + b.Streak
	return b
}

func Compute(m activity.Metrics, streakDays int) int {
	return Explain(m, streakDays).Total
}
