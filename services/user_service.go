package services

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	pointsledger "fitQuestAPI/internal/ledger"
	"fitQuestAPI/internal/store"
	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/leaderboard"
	"fitQuestAPI/internal/types/notification"
	"fitQuestAPI/internal/types/user"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

type UserService struct {
	store        store.Store
	leaderboards *LeaderboardService
	now          func() time.Time
}

func NewUserService(st store.Store, leaderboards *LeaderboardService) *UserService {
	return &UserService{store: st, leaderboards: leaderboards, now: time.Now}
}

// Register creates the gamification profile for an authenticated subject.
func (s *UserService) Register(ctx context.Context, clerkID string, req *user.RegisterRequest) (*user.User, error) {
	username := strings.TrimSpace(req.Username)
	if !usernamePattern.MatchString(username) {
		return nil, &activity.ValidationError{Field: "username", Message: "must be 3-30 letters, digits or underscores"}
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, &activity.ValidationError{Field: "email", Message: "is not a valid address"}
		}
	}

	levels, err := s.store.ListLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load levels: %w", err)
	}

	now := s.now()
	u := &user.User{
		ID:           uuid.New(),
		ClerkID:      clerkID,
		Username:     username,
		Email:        email,
		CurrentLevel: pointsledger.LevelFor(0, levels),
		Badges:       map[uuid.UUID]time.Time{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	return s.store.GetUserByClerkID(ctx, clerkID)
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*user.Profile, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	levels, err := s.store.ListLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load levels: %w", err)
	}

	progress := pointsledger.Progress(u.TotalPoints, u.CurrentLevel, levels)
	profile := &user.Profile{
		User:       u,
		Level:      &progress,
		BadgeCount: len(u.Badges),
	}

	if s.leaderboards != nil {
		r, err := s.leaderboards.UserRank(ctx, userID, leaderboard.PeriodOverall, leaderboard.CategoryPoints)
		if err != nil {
			return nil, err
		}
		if r.Ranked {
			profile.OverallRank = &r.Rank
		}
	}
	return profile, nil
}

func (s *UserService) RegisterDevice(ctx context.Context, userID uuid.UUID, req *notification.RegisterDeviceRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return &activity.ValidationError{Field: "token", Message: "is required"}
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	switch platform {
	case "":
		platform = "android"
	case "android", "ios", "web":
	default:
		return &activity.ValidationError{Field: "platform", Message: "must be android, ios or web"}
	}

	return s.store.RegisterDevice(ctx, userID, notification.DeviceToken{
		Token:     token,
		Platform:  platform,
		CreatedAt: s.now(),
	})
}
