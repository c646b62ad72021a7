package leaderboard

import (
	"time"

	"github.com/google/uuid"
)

type Period string

const (
	PeriodOverall Period = "overall"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

type Category string

const (
	CategoryPoints       Category = "points"
	CategorySteps        Category = "steps"
	CategoryCalories     Category = "calories"
	CategoryDistance     Category = "distance"
	CategoryExerciseTime Category = "exerciseTime"
	CategoryStreak       Category = "streak"
)

// Row is one user's aggregate before ranking. MemberSince feeds the tiebreak.
type Row struct {
	UserID      uuid.UUID `db:"user_id"`
	Username    string    `db:"username"`
	Level       int       `db:"current_level"`
	Value       float64   `db:"value"`
	MemberSince time.Time `db:"created_at"`
}

type Entry struct {
	Rank     int       `json:"rank"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Level    int       `json:"level"`
	Value    float64   `json:"value"`
}

type Board struct {
	Period      Period     `json:"period"`
	Category    Category   `json:"category"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	Entries     []*Entry   `json:"entries"`
}

type Rank struct {
	Period   Period   `json:"period"`
	Category Category `json:"category"`
	Ranked   bool     `json:"ranked"`
	Rank     int      `json:"rank,omitempty"`
	Value    float64  `json:"value,omitempty"`
	Message  string   `json:"message,omitempty"`
}
