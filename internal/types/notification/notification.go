package notification

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventBadgeEarned        EventKind = "badge_earned"
	EventChallengeCompleted EventKind = "challenge_completed"
	EventStreakMilestone    EventKind = "streak_milestone"
	EventLevelUp            EventKind = "level_up"
	EventLeaderboard        EventKind = "leaderboard"
)

type Event struct {
	Kind      EventKind      `json:"kind"`
	UserID    uuid.UUID      `json:"user_id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type DeviceToken struct {
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}
