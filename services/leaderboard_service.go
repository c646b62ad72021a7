package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	rank "fitQuestAPI/internal/leaderboard"
	"fitQuestAPI/internal/store"
	"fitQuestAPI/internal/types/leaderboard"
	"fitQuestAPI/internal/types/notification"
)

// LeaderboardService reads rankings straight from the store. Results may
// trail the latest commit.
type LeaderboardService struct {
	store     store.Rankings
	loc       *time.Location
	now       func() time.Time
	publisher EventPublisher
}

func NewLeaderboardService(st store.Rankings, loc *time.Location) *LeaderboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &LeaderboardService{store: st, loc: loc, now: time.Now}
}

func (s *LeaderboardService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *LeaderboardService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

// Board ranks users for period and category. Streak boards always use the
// live streak and ignore the period's window.
func (s *LeaderboardService) Board(ctx context.Context, period leaderboard.Period, category leaderboard.Category, limit int) (*leaderboard.Board, error) {
	limit = rank.ClampLimit(limit)
	board := &leaderboard.Board{Period: period, Category: category}

	var rows []*leaderboard.Row
	var err error
	switch {
	case category == leaderboard.CategoryStreak:
		rows, err = s.store.RankUsers(ctx, leaderboard.CategoryStreak, limit)
	case category == leaderboard.CategoryPoints && period == leaderboard.PeriodOverall:
		rows, err = s.store.RankUsers(ctx, leaderboard.CategoryPoints, limit)
	default:
		metric, ok := rank.Metric(category)
		if !ok {
			return nil, fmt.Errorf("unknown leaderboard category %q", category)
		}
		since, windowed := rank.WindowStart(period, s.now(), s.loc)
		if windowed {
			board.WindowStart = &since
		}
		rows, err = s.store.RankActivityTotals(ctx, metric, since, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rank %s %s: %w", period, category, err)
	}

	board.Entries = rank.Rank(rows, limit)
	return board, nil
}

func (s *LeaderboardService) Overall(ctx context.Context, limit int) (*leaderboard.Board, error) {
	return s.Board(ctx, leaderboard.PeriodOverall, leaderboard.CategoryPoints, limit)
}

func (s *LeaderboardService) Weekly(ctx context.Context, category leaderboard.Category, limit int) (*leaderboard.Board, error) {
	return s.Board(ctx, leaderboard.PeriodWeekly, category, limit)
}

func (s *LeaderboardService) Monthly(ctx context.Context, category leaderboard.Category, limit int) (*leaderboard.Board, error) {
	return s.Board(ctx, leaderboard.PeriodMonthly, category, limit)
}

// UserRank searches the top RankSearchDepth entries only.
func (s *LeaderboardService) UserRank(ctx context.Context, userID uuid.UUID, period leaderboard.Period, category leaderboard.Category) (*leaderboard.Rank, error) {
	board, err := s.Board(ctx, period, category, rank.RankSearchDepth)
	if err != nil {
		return nil, err
	}
	return rank.FindRank(board, userID), nil
}

// Snapshot publishes the overall top board to the realtime feed.
func (s *LeaderboardService) Snapshot(ctx context.Context) error {
	if s.publisher == nil {
		return nil
	}
	board, err := s.Overall(ctx, rank.DefaultLimit)
	if err != nil {
		return err
	}

	s.publisher.Publish(&notification.Event{
		Kind:      notification.EventLeaderboard,
		Title:     "Leaderboard",
		Data:      map[string]any{"board": board},
		CreatedAt: s.now(),
	})
	return nil
}
