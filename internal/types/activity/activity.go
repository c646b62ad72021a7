package activity

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Metric string

const (
	MetricSteps        Metric = "steps"
	MetricDistance     Metric = "distance"
	MetricExerciseTime Metric = "exerciseTime"
	MetricCalories     Metric = "calories"
	MetricPoints       Metric = "points"
)

// Metrics are the raw values a user logs for one entry. Distance is in
// kilometres and ExerciseTime in minutes.
type Metrics struct {
	Steps        int     `json:"steps" db:"steps"`
	Distance     float64 `json:"distance" db:"distance"`
	ExerciseTime float64 `json:"exercise_time" db:"exercise_time"`
	Calories     int     `json:"calories" db:"calories"`
}

// Value returns the metric as a float. MetricPoints is not part of Metrics
// and reports 0.
func (m Metrics) Value(metric Metric) float64 {
	switch metric {
	case MetricSteps:
		return float64(m.Steps)
	case MetricDistance:
		return m.Distance
	case MetricExerciseTime:
		return m.ExerciseTime
	case MetricCalories:
		return float64(m.Calories)
	}
	return 0
}

// ActiveCount is the number of metrics with a value above zero.
func (m Metrics) ActiveCount() int {
	n := 0
	if m.Steps > 0 {
		n++
	}
	if m.Distance > 0 {
		n++
	}
	if m.ExerciseTime > 0 {
		n++
	}
	if m.Calories > 0 {
		n++
	}
	return n
}

func (m Metrics) IsZero() bool {
	return m.ActiveCount() == 0
}

func (m Metrics) Add(o Metrics) Metrics {
	return Metrics{
		Steps:        m.Steps + o.Steps,
		Distance:     m.Distance + o.Distance,
		ExerciseTime: m.ExerciseTime + o.ExerciseTime,
		Calories:     m.Calories + o.Calories,
	}
}

// Replace swaps old for new inside a sum of metrics.
func (m Metrics) Replace(old, new Metrics) Metrics {
	return Metrics{
		Steps:        m.Steps - old.Steps + new.Steps,
		Distance:     math.Round((m.Distance-old.Distance+new.Distance)*1e6) / 1e6,
		ExerciseTime: m.ExerciseTime - old.ExerciseTime + new.ExerciseTime,
		Calories:     m.Calories - old.Calories + new.Calories,
	}
}

type Entry struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	Date   time.Time `json:"date" db:"date"`
	Metrics
	PointsEarned int       `json:"points_earned" db:"points_earned"`
	Scored       bool      `json:"scored" db:"scored"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Totals is a sum over a set of entries.
type Totals struct {
	Metrics
	Points int `json:"points"`
	Count  int `json:"count"`
}

func (t *Totals) Add(e *Entry) {
	t.Metrics = t.Metrics.Add(e.Metrics)
	t.Points += e.PointsEarned
	t.Count++
}

func (t Totals) Value(metric Metric) float64 {
	if metric == MetricPoints {
		return float64(t.Points)
	}
	return t.Metrics.Value(metric)
}

func Sum(entries []*Entry) Totals {
	var t Totals
	for _, e := range entries {
		t.Add(e)
	}
	return t
}

// Query filters an activity listing. A zero From/To leaves that side open.
type Query struct {
	From  time.Time
	To    time.Time
	Limit int
}

type CreateRequest struct {
	Date         *string  `json:"date,omitempty"`
	Steps        *int     `json:"steps,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	ExerciseTime *float64 `json:"exercise_time,omitempty"`
	Calories     *int     `json:"calories,omitempty"`
}

// UpdateRequest changes metrics only; the entry's date is fixed at creation.
type UpdateRequest struct {
	Steps        *int     `json:"steps,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	ExerciseTime *float64 `json:"exercise_time,omitempty"`
	Calories     *int     `json:"calories,omitempty"`
}

type DaySummary struct {
	Date string `json:"date"`
	Totals
}

type Averages struct {
	Steps        float64 `json:"steps"`
	Distance     float64 `json:"distance"`
	ExerciseTime float64 `json:"exercise_time"`
	Calories     float64 `json:"calories"`
	Points       float64 `json:"points"`
}

type Stats struct {
	Period     string       `json:"period"`
	From       time.Time    `json:"from"`
	To         time.Time    `json:"to"`
	Totals     Totals       `json:"totals"`
	Averages   Averages     `json:"averages"`
	ActiveDays int          `json:"active_days"`
	Days       []DaySummary `json:"days"`
}
