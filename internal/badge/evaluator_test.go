package badge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/badge"
	"fitQuestAPI/internal/types/user"
)

type fakeStats struct {
	totals activity.Totals
	err    error
	calls  int
}

func (f *fakeStats) LifetimeTotals(ctx context.Context, userID uuid.UUID) (activity.Totals, error) {
	f.calls++
	return f.totals, f.err
}

func def(name string, cat badge.Category, t badge.RequirementType, v float64, reward int) *badge.Badge {
	return &badge.Badge{ID: uuid.New(), Name: name, Category: cat, Requirement: badge.Requirement{Type: t, Value: v}, PointsReward: reward}
}

func newUser() *user.User {
	return &user.User{ID: uuid.New(), CurrentLevel: 1, Badges: map[uuid.UUID]time.Time{}}
}

func awardInto(u *user.User) func(*badge.Badge) {
	return func(b *badge.Badge) {
		u.Badges[b.ID] = time.Now()
		u.TotalPoints += b.PointsReward
	}
}

func names(bs []*badge.Badge) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Name)
	}
	return out
}

func TestEvaluateDailyVersusLifetime(t *testing.T) {
	ctx := context.Background()
	u := newUser()
	stats := &fakeStats{totals: activity.Totals{Metrics: activity.Metrics{Distance: 45}, Count: 12}}
	defs := []*badge.Badge{
		def("Distance Explorer", badge.CategoryActivity, badge.RequirementDistance, 10, 30),
		def("Marathon Distance", badge.CategoryMilestone, badge.RequirementDistance, 42, 150),
	}

	day := &activity.Totals{Metrics: activity.Metrics{Distance: 6}}
	earned, err := NewEvaluator().Evaluate(ctx, defs, Subject{User: u, Day: day}, NewStatsCache(stats, u.ID), awardInto(u))

	require.NoError(t, err)
	assert.Equal(t, []string{"Marathon Distance"}, names(earned))
	assert.Equal(t, 150, u.TotalPoints)
}

func TestEvaluateActivityBadgeNeedsDay(t *testing.T) {
	u := newUser()
	defs := []*badge.Badge{def("Step Champion", badge.CategoryActivity, badge.RequirementSteps, 10000, 25)}

	earned, err := NewEvaluator().Evaluate(context.Background(), defs, Subject{User: u}, NewStatsCache(&fakeStats{}, u.ID), awardInto(u))

	require.NoError(t, err)
	assert.Empty(t, earned)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	u := newUser()
	u.StreakDays = 7
	stats := &fakeStats{totals: activity.Totals{Count: 1}}
	defs := []*badge.Badge{
		def("First Steps", badge.CategoryActivity, badge.RequirementTotalActivities, 1, 10),
		def("Week Warrior", badge.CategoryStreak, badge.RequirementStreak, 7, 50),
	}
	ev := NewEvaluator()

	first, err := ev.Evaluate(ctx, defs, Subject{User: u}, NewStatsCache(stats, u.ID), awardInto(u))
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 60, u.TotalPoints)

	second, err := ev.Evaluate(ctx, defs, Subject{User: u}, NewStatsCache(stats, u.ID), awardInto(u))
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 60, u.TotalPoints)
}

func TestEvaluateCachesLifetimeTotals(t *testing.T) {
	u := newUser()
	stats := &fakeStats{totals: activity.Totals{Metrics: activity.Metrics{Steps: 50000, Calories: 100}, Count: 3}}
	defs := []*badge.Badge{
		def("a", badge.CategoryMilestone, badge.RequirementSteps, 1000, 0),
		def("b", badge.CategoryMilestone, badge.RequirementCalories, 1000, 0),
		def("c", badge.CategoryMilestone, badge.RequirementTotalActivities, 2, 0),
	}
	cache := NewStatsCache(stats, u.ID)

	earned, err := NewEvaluator().Evaluate(context.Background(), defs, Subject{User: u}, cache, awardInto(u))

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names(earned))
	assert.Equal(t, 1, stats.calls)
	assert.Equal(t, 1, cache.Queries())
}

func TestEvaluateSinglePass(t *testing.T) {
	ctx := context.Background()
	u := newUser()
	u.TotalPoints = 990
	u.StreakDays = 7
	defs := []*badge.Badge{
		def("Point Collector", badge.CategoryMilestone, badge.RequirementPoints, 1000, 0),
		def("Week Warrior", badge.CategoryStreak, badge.RequirementStreak, 7, 50),
		def("Point Keeper", badge.CategoryMilestone, badge.RequirementPoints, 1020, 0),
	}
	ev := NewEvaluator()

	earned, err := ev.Evaluate(ctx, defs, Subject{User: u}, NewStatsCache(&fakeStats{}, u.ID), awardInto(u))
	require.NoError(t, err)
	// The reward lifts the total past both thresholds, but only the later
	// definition sees it during this pass.
	assert.Equal(t, []string{"Week Warrior", "Point Keeper"}, names(earned))

	next, err := ev.Evaluate(ctx, defs, Subject{User: u}, NewStatsCache(&fakeStats{}, u.ID), awardInto(u))
	require.NoError(t, err)
	assert.Equal(t, []string{"Point Collector"}, names(next))
}

func TestEvaluateSourceError(t *testing.T) {
	u := newUser()
	stats := &fakeStats{err: errors.New("db down")}
	defs := []*badge.Badge{def("Century Club", badge.CategoryMilestone, badge.RequirementTotalActivities, 100, 200)}

	_, err := NewEvaluator().Evaluate(context.Background(), defs, Subject{User: u}, NewStatsCache(stats, u.ID), awardInto(u))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Zero(t, u.TotalPoints)
}

func TestRegisterCustomRequirement(t *testing.T) {
	u := newUser()
	u.CurrentLevel = 4
	ev := NewEvaluator()
	ev.Register("level", func(_ context.Context, _ *badge.Badge, s Subject, _ *StatsCache) (float64, bool, error) {
		return float64(s.User.CurrentLevel), true, nil
	})
	defs := []*badge.Badge{
		def("Athlete", badge.CategoryMilestone, "level", 4, 0),
		def("Unknown", badge.CategoryMilestone, "no_such_type", 0, 0),
	}

	earned, err := ev.Evaluate(context.Background(), defs, Subject{User: u}, NewStatsCache(&fakeStats{}, u.ID), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"Athlete"}, names(earned))
}

func TestCatalogue(t *testing.T) {
	defs := Catalogue()
	require.Len(t, defs, 37)

	seen := map[string]bool{}
	for i, d := range defs {
		assert.False(t, seen[d.Name], "duplicate badge %s", d.Name)
		seen[d.Name] = true
		assert.Equal(t, i+1, d.SortOrder)
		assert.GreaterOrEqual(t, d.PointsReward, 0)
	}
	assert.Equal(t, "First Steps", defs[0].Name)
}
