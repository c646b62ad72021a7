package badge

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryActivity  Category = "activity"
	CategoryStreak    Category = "streak"
	CategoryMilestone Category = "milestone"
)

type RequirementType string

const (
	RequirementSteps           RequirementType = "steps"
	RequirementDistance        RequirementType = "distance"
	RequirementCalories        RequirementType = "calories"
	RequirementExerciseTime    RequirementType = "exerciseTime"
	RequirementStreak          RequirementType = "streak"
	RequirementTotalActivities RequirementType = "total_activities"
	RequirementPoints          RequirementType = "points"
)

type Requirement struct {
	Type  RequirementType `json:"type" db:"requirement_type"`
	Value float64         `json:"value" db:"requirement_value"`
}

type Badge struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Description  string      `json:"description" db:"description"`
	Icon         string      `json:"icon" db:"icon"`
	Category     Category    `json:"category" db:"category"`
	Requirement  Requirement `json:"requirement"`
	PointsReward int         `json:"points_reward" db:"points_reward"`
	SortOrder    int         `json:"-" db:"sort_order"`
}

// Status is a catalogue entry as seen by one user.
type Status struct {
	*Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

type Earned struct {
	*Badge
	EarnedAt time.Time `json:"earned_at"`
}
