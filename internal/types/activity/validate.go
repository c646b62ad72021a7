package activity

import (
	"fmt"
	"math"
	"time"

	"fitQuestAPI/internal/dates"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ParseDate accepts a calendar date (2006-01-02, read as midnight in loc) or
// a full RFC3339 timestamp.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, invalid("date", "must be an ISO 8601 date")
}

func checkFloat(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, "must be a number")
	}
	if v < 0 {
		return invalid(field, "must be a non-negative number")
	}
	return nil
}

func checkInt(field string, v int) error {
	if v < 0 {
		return invalid(field, "must be a non-negative number")
	}
	return nil
}

func applyFields(m *Metrics, steps *int, distance, exercise *float64, calories *int) error {
	if steps != nil {
		if err := checkInt("steps", *steps); err != nil {
			return err
		}
		m.Steps = *steps
	}
	if distance != nil {
		if err := checkFloat("distance", *distance); err != nil {
			return err
		}
		m.Distance = *distance
	}
	if exercise != nil {
		if err := checkFloat("exercise_time", *exercise); err != nil {
			return err
		}
		m.ExerciseTime = *exercise
	}
	if calories != nil {
		if err := checkInt("calories", *calories); err != nil {
			return err
		}
		m.Calories = *calories
	}
	return nil
}

// Validate checks a submission and resolves its date. A missing date means
// now; dates past the end of the current day are rejected.
func (r *CreateRequest) Validate(now time.Time, loc *time.Location) (Metrics, time.Time, error) {
	var m Metrics
	if err := applyFields(&m, r.Steps, r.Distance, r.ExerciseTime, r.Calories); err != nil {
		return Metrics{}, time.Time{}, err
	}
	if m.IsZero() {
		return Metrics{}, time.Time{}, invalid("metrics", "at least one activity metric must be greater than zero")
	}

	date := now
	if r.Date != nil && *r.Date != "" {
		d, err := ParseDate(*r.Date, loc)
		if err != nil {
			return Metrics{}, time.Time{}, err
		}
		date = d
	}

	if !date.Before(dates.StartOfTomorrow(now, loc)) {
		return Metrics{}, time.Time{}, invalid("date", "cannot be in the future")
	}
	return m, date, nil
}

// Apply overlays the provided fields on current.
func (r *UpdateRequest) Apply(current Metrics) (Metrics, error) {
	m := current
	if err := applyFields(&m, r.Steps, r.Distance, r.ExerciseTime, r.Calories); err != nil {
		return Metrics{}, err
	}
	if m.IsZero() {
		return Metrics{}, invalid("metrics", "at least one activity metric must be greater than zero")
	}
	return m, nil
}
