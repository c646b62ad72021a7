package challenge

import (
	"time"

	"github.com/google/uuid"

	"fitQuestAPI/internal/types/activity"
)

type Type string

const (
	TypeDaily  Type = "daily"
	TypeWeekly Type = "weekly"
)

type Target struct {
	Type  activity.Metric `json:"type" db:"target_type"`
	Value float64         `json:"value" db:"target_value"`
}

// Challenge spans [StartDate, EndDate). Once Completed it never reopens.
type Challenge struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	Type          Type       `json:"type" db:"type"`
	Target        Target     `json:"target"`
	StartDate     time.Time  `json:"start_date" db:"start_date"`
	EndDate       time.Time  `json:"end_date" db:"end_date"`
	Completed     bool       `json:"completed" db:"completed"`
	CompletedDate *time.Time `json:"completed_date" db:"completed_date"`
	PointsReward  int        `json:"points_reward" db:"points_reward"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

type WithProgress struct {
	*Challenge
	CurrentValue float64 `json:"current_value"`
	Progress     int     `json:"progress"`
}
