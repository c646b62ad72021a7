package user

import (
	"time"

	"github.com/google/uuid"

	"fitQuestAPI/internal/types/level"
)

// User carries the gamification state owned by the points ledger. Version
// is bumped on every committed change and guards concurrent writers.
type User struct {
	ID               uuid.UUID               `json:"id" db:"id"`
	ClerkID          string                  `json:"clerk_id" db:"clerk_id"`
	Username         string                  `json:"username" db:"username"`
	Email            string                  `json:"email" db:"email"`
	TotalPoints      int                     `json:"total_points" db:"total_points"`
	CurrentLevel     int                     `json:"current_level" db:"current_level"`
	StreakDays       int                     `json:"streak_days" db:"streak_days"`
	LastActivityDate *time.Time              `json:"last_activity_date" db:"last_activity_date"`
	Badges           map[uuid.UUID]time.Time `json:"-"`
	Version          int64                   `json:"-" db:"version"`
	CreatedAt        time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at" db:"updated_at"`
}

func (u *User) HasBadge(id uuid.UUID) bool {
	_, ok := u.Badges[id]
	return ok
}

// Clone returns a deep copy so callers can mutate state without touching a
// shared instance.
func (u *User) Clone() *User {
	c := *u
	if u.LastActivityDate != nil {
		d := *u.LastActivityDate
		c.LastActivityDate = &d
	}
	c.Badges = make(map[uuid.UUID]time.Time, len(u.Badges))
	for id, at := range u.Badges {
		c.Badges[id] = at
	}
	return &c
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Profile struct {
	User        *User           `json:"user"`
	Level       *level.Progress `json:"level"`
	BadgeCount  int             `json:"badge_count"`
	OverallRank *int            `json:"overall_rank"`
}
