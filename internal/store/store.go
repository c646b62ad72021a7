// Package store persists users, activities and the gamification records
// derived from them. Every gamification side effect for one user is written
// through Commit so totals, badges, challenges and ledger rows land together
// or not at all.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/badge"
	"fitQuestAPI/internal/types/challenge"
	"fitQuestAPI/internal/types/leaderboard"
	"fitQuestAPI/internal/types/ledger"
	"fitQuestAPI/internal/types/level"
	"fitQuestAPI/internal/types/notification"
	"fitQuestAPI/internal/types/user"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")
)

type Users interface {
	CreateUser(ctx context.Context, u *user.User) error
	// GetUser returns the user with its earned badge set populated.
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
	ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*badge.Earned, error)
}

type Activities interface {
	CreateActivity(ctx context.Context, e *activity.Entry) error
	GetActivity(ctx context.Context, userID, id uuid.UUID) (*activity.Entry, error)
	// ListActivities returns newest first.
	ListActivities(ctx context.Context, userID uuid.UUID, q activity.Query) ([]*activity.Entry, error)
	// SumActivities aggregates entries dated in [from, to). Zero bounds are open.
	SumActivities(ctx context.Context, userID uuid.UUID, from, to time.Time) (activity.Totals, error)
	ListUnscoredActivities(ctx context.Context, createdBefore time.Time, limit int) ([]*activity.Entry, error)
}

type Rankings interface {
	// RankUsers orders users by a live user field: points or streak.
	RankUsers(ctx context.Context, by leaderboard.Category, limit int) ([]*leaderboard.Row, error)
	// RankActivityTotals sums metric over entries dated at or after since.
	RankActivityTotals(ctx context.Context, metric activity.Metric, since time.Time, limit int) ([]*leaderboard.Row, error)
}

type Catalog interface {
	ListBadges(ctx context.Context) ([]*badge.Badge, error)
	SeedBadges(ctx context.Context, defs []*badge.Badge) (int, error)
	ListLevels(ctx context.Context) ([]level.Level, error)
	SeedLevels(ctx context.Context, levels []level.Level) (int, error)
}

// ChallengeFilter narrows ListChallenges. Zero times are ignored.
type ChallengeFilter struct {
	OpenOnly       bool
	EndingAfter    time.Time
	StartingFrom   time.Time
	StartingBefore time.Time
}

type Challenges interface {
	CreateChallenge(ctx context.Context, c *challenge.Challenge) error
	ListChallenges(ctx context.Context, userID uuid.UUID, f ChallengeFilter) ([]*challenge.Challenge, error)
}

type Ledger interface {
	ListLedger(ctx context.Context, userID uuid.UUID, limit int) ([]*ledger.Entry, error)
}

type Devices interface {
	RegisterDevice(ctx context.Context, userID uuid.UUID, token notification.DeviceToken) error
	ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error)
}

// ActivityPoints sets an entry's points. FirstScore additionally requires
// the entry to be unscored and marks it scored. Metrics, when set, replaces
// the entry's metrics in the same commit and stamps EditedAt.
type ActivityPoints struct {
	ID         uuid.UUID
	Points     int
	FirstScore bool
	Metrics    *activity.Metrics
	EditedAt   time.Time
}

type AwardedBadge struct {
	BadgeID  uuid.UUID
	EarnedAt time.Time
}

// Commit is one unit of gamification work for a single user. User holds the
// new state and the Version it was read at. Any stale guard fails the whole
// commit with ErrVersionConflict.
type Commit struct {
	User           *user.User
	Activity       *ActivityPoints
	DeleteActivity *uuid.UUID
	Badges         []AwardedBadge
	Challenges     []*challenge.Challenge
	Ledger         []*ledger.Entry
}

type Store interface {
	Users
	Activities
	Rankings
	Catalog
	Challenges
	Ledger
	Devices

	// Apply writes c atomically and bumps c.User.Version on success.
	Apply(ctx context.Context, c *Commit) error
	Ping(ctx context.Context) error
}
