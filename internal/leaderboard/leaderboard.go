// Package leaderboard ranks users by a metric over a time window.
package leaderboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"fitQuestAPI/internal/dates"
	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/leaderboard"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// RankSearchDepth bounds how far UserRank looks before giving up.
	RankSearchDepth = 100
)

const UnrankedMessage = "Not ranked in top 100"

func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

func ParsePeriod(s string) (leaderboard.Period, error) {
	switch p := leaderboard.Period(s); p {
	case leaderboard.PeriodOverall, leaderboard.PeriodWeekly, leaderboard.PeriodMonthly:
		return p, nil
	case "":
		return leaderboard.PeriodOverall, nil
	}
	return "", fmt.Errorf("unknown leaderboard type %q", s)
}

func ParseCategory(s string) (leaderboard.Category, error) {
	switch c := leaderboard.Category(s); c {
	case leaderboard.CategoryPoints, leaderboard.CategorySteps, leaderboard.CategoryCalories,
		leaderboard.CategoryDistance, leaderboard.CategoryExerciseTime, leaderboard.CategoryStreak:
		return c, nil
	case "":
		return leaderboard.CategoryPoints, nil
	}
	return "", fmt.Errorf("unknown leaderboard category %q", s)
}

// Metric maps a windowed category to the activity field it sums. Streak has
// no activity field and reports false.
func Metric(c leaderboard.Category) (activity.Metric, bool) {
	switch c {
	case leaderboard.CategoryPoints:
		return activity.MetricPoints, true
	case leaderboard.CategorySteps:
		return activity.MetricSteps, true
	case leaderboard.CategoryCalories:
		return activity.MetricCalories, true
	case leaderboard.CategoryDistance:
		return activity.MetricDistance, true
	case leaderboard.CategoryExerciseTime:
		return activity.MetricExerciseTime, true
	}
	return "", false
}

// WindowStart is Sunday 00:00 for weekly boards and the 1st of the month
// for monthly ones. Overall boards have no window.
func WindowStart(p leaderboard.Period, now time.Time, loc *time.Location) (time.Time, bool) {
	switch p {
	case leaderboard.PeriodWeekly:
		return dates.StartOfWeek(now, loc), true
	case leaderboard.PeriodMonthly:
		return dates.StartOfMonth(now, loc), true
	}
	return time.Time{}, false
}

// Less orders rows by value descending, then by membership age and finally
// by id so equal values always rank the same way.
func Less(a, b *leaderboard.Row) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	if !a.MemberSince.Equal(b.MemberSince) {
		return a.MemberSince.Before(b.MemberSince)
	}
	return a.UserID.String() < b.UserID.String()
}

// Rank sorts rows, truncates to limit and assigns 1-based ranks.
func Rank(rows []*leaderboard.Row, limit int) []*leaderboard.Entry {
	sorted := append([]*leaderboard.Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return Less(sorted[i], sorted[j]) })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	entries := make([]*leaderboard.Entry, 0, len(sorted))
	for i, r := range sorted {
		entries = append(entries, &leaderboard.Entry{
			Rank:     i + 1,
			UserID:   r.UserID,
			Username: r.Username,
			Level:    r.Level,
			Value:    r.Value,
		})
	}
	return entries
}

// FindRank looks up userID on an already ranked board.
func FindRank(board *leaderboard.Board, userID uuid.UUID) *leaderboard.Rank {
	r := &leaderboard.Rank{Period: board.Period, Category: board.Category}
	for _, e := range board.Entries {
		if e.UserID == userID {
			r.Ranked = true
			r.Rank = e.Rank
			r.Value = e.Value
			return r
		}
	}
	r.Message = UnrankedMessage
	return r
}
