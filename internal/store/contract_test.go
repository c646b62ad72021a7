package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/badge"
	"fitQuestAPI/internal/types/challenge"
	"fitQuestAPI/internal/types/leaderboard"
	"fitQuestAPI/internal/types/ledger"
	"fitQuestAPI/internal/types/level"
	"fitQuestAPI/internal/types/user"
)

// runContract exercises behaviour every Store implementation must share.
func runContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("activities", func(t *testing.T) { testActivities(t, newStore(t)) })
	t.Run("apply guards", func(t *testing.T) { testApplyGuards(t, newStore(t)) })
	t.Run("rankings", func(t *testing.T) { testRankings(t, newStore(t)) })
	t.Run("catalog seeding", func(t *testing.T) { testCatalog(t, newStore(t)) })
}

func mustUser(t *testing.T, s Store, name string) *user.User {
	t.Helper()
	u := &user.User{
		ClerkID:  "clerk_" + name + "_" + uuid.NewString()[:8],
		Username: name + "_" + uuid.NewString()[:8],
		Email:    name + "@example.com",
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func mustActivity(t *testing.T, s Store, userID uuid.UUID, date time.Time, m activity.Metrics) *activity.Entry {
	t.Helper()
	e := &activity.Entry{ID: uuid.New(), UserID: userID, Date: date, Metrics: m, CreatedAt: date, UpdatedAt: date}
	require.NoError(t, s.CreateActivity(context.Background(), e))
	return e
}

func testUsers(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")

	got, err := s.GetUserByClerkID(ctx, u.ClerkID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 1, got.CurrentLevel)
	assert.NotNil(t, got.Badges)

	dup := &user.User{ClerkID: u.ClerkID, Username: "someone_else_" + uuid.NewString()[:8]}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrAlreadyExists)

	_, err = s.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func testActivities(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s, "bob")
	day := time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC)

	a1 := mustActivity(t, s, u.ID, day.Add(8*time.Hour), activity.Metrics{Steps: 3000})
	mustActivity(t, s, u.ID, day.Add(20*time.Hour), activity.Metrics{Steps: 2000, Distance: 1.5})
	mustActivity(t, s, u.ID, day.AddDate(0, 0, 1).Add(time.Hour), activity.Metrics{Calories: 200})

	sum, err := s.SumActivities(ctx, u.ID, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 5000, sum.Steps)
	assert.InDelta(t, 1.5, sum.Distance, 1e-9)
	assert.Equal(t, 2, sum.Count)

	all, err := s.SumActivities(ctx, u.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, 200, all.Calories)

	list, err := s.ListActivities(ctx, u.ID, activity.Query{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 200, list[0].Calories)

	got, err := s.GetActivity(ctx, u.ID, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, 3000, got.Steps)
	assert.False(t, got.Scored)

	_, err = s.GetActivity(ctx, uuid.New(), a1.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	unscored, err := s.ListUnscoredActivities(ctx, day.AddDate(0, 0, 5), 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(unscored), 3)
}

func testApplyGuards(t *testing.T, s Store) {
	ctx := context.Background()
	u := mustUser(t, s, "carol")
	now := time.Date(2025, time.April, 3, 12, 0, 0, 0, time.UTC)
	a := mustActivity(t, s, u.ID, now, activity.Metrics{Steps: 10000})

	_, err := s.SeedBadges(ctx, []*badge.Badge{{Name: "Guard Badge " + uuid.NewString()[:8], Category: badge.CategoryMilestone,
		Requirement: badge.Requirement{Type: badge.RequirementTotalActivities, Value: 1}, PointsReward: 10, SortOrder: 1}})
	require.NoError(t, err)
	defs, err := s.ListBadges(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	ch := &challenge.Challenge{ID: uuid.New(), UserID: u.ID, Type: challenge.TypeDaily,
		Target: challenge.Target{Type: activity.MetricSteps, Value: 5000}, StartDate: now.Truncate(24 * time.Hour),
		EndDate: now.Truncate(24 * time.Hour).Add(24 * time.Hour), PointsReward: 50, CreatedAt: now}
	require.NoError(t, s.CreateChallenge(ctx, ch))
	dup := *ch
	dup.ID = uuid.New()
	assert.ErrorIs(t, s.CreateChallenge(ctx, &dup), ErrAlreadyExists)

	read, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)

	next := read.Clone()
	next.TotalPoints = 160
	next.StreakDays = 1
	next.LastActivityDate = &now
	done := now
	completed := *ch
	completed.Completed = true
	completed.CompletedDate = &done
	ref := a.ID

	commit := &Commit{
		User:       next,
		Activity:   &ActivityPoints{ID: a.ID, Points: 100, FirstScore: true},
		Badges:     []AwardedBadge{{BadgeID: defs[0].ID, EarnedAt: now}},
		Challenges: []*challenge.Challenge{&completed},
		Ledger: []*ledger.Entry{
			{ID: uuid.New(), UserID: u.ID, Source: ledger.SourceActivity, ReferenceID: &ref, Requested: 100, Applied: 100, BalanceAfter: 100, CreatedAt: now},
			{ID: uuid.New(), UserID: u.ID, Source: ledger.SourceBadge, Requested: 10, Applied: 10, BalanceAfter: 110, CreatedAt: now},
			{ID: uuid.New(), UserID: u.ID, Source: ledger.SourceChallenge, Requested: 50, Applied: 50, BalanceAfter: 160, CreatedAt: now},
		},
	}
	require.NoError(t, s.Apply(ctx, commit))
	assert.Equal(t, read.Version+1, next.Version)

	stored, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 160, stored.TotalPoints)
	assert.True(t, stored.HasBadge(defs[0].ID))

	scored, err := s.GetActivity(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, scored.Scored)
	assert.Equal(t, 100, scored.PointsEarned)

	entries, err := s.ListLedger(ctx, u.ID, 0)
	require.NoError(t, err)
	total := 0
	var balances []int
	for _, e := range entries {
		total += e.Applied
		balances = append(balances, e.BalanceAfter)
	}
	assert.Equal(t, stored.TotalPoints, total)
	// Entries of one commit share a timestamp and still list newest first.
	assert.Equal(t, []int{160, 110, 100}, balances)

	// The same read version is now stale.
	stale := read.Clone()
	stale.TotalPoints = 999
	assert.ErrorIs(t, s.Apply(ctx, &Commit{User: stale}), ErrVersionConflict)

	// Fresh version but the activity was already scored.
	again := stored.Clone()
	assert.ErrorIs(t, s.Apply(ctx, &Commit{User: again, Activity: &ActivityPoints{ID: a.ID, Points: 5, FirstScore: true}}), ErrVersionConflict)

	// Completing the challenge twice fails as a whole.
	again = stored.Clone()
	again.TotalPoints = 210
	assert.ErrorIs(t, s.Apply(ctx, &Commit{User: again, Challenges: []*challenge.Challenge{&completed}}), ErrVersionConflict)

	after, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 160, after.TotalPoints)
	assert.Equal(t, stored.Version, after.Version)

	// An edit writes metrics and points together.
	edit := after.Clone()
	edit.TotalPoints = 170
	edited := activity.Metrics{Steps: 12000, Calories: 100}
	require.NoError(t, s.Apply(ctx, &Commit{User: edit, Activity: &ActivityPoints{ID: a.ID, Points: 110, Metrics: &edited, EditedAt: now.Add(time.Hour)}}))
	changed, err := s.GetActivity(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 12000, changed.Steps)
	assert.Equal(t, 100, changed.Calories)
	assert.Equal(t, 110, changed.PointsEarned)

	// Deleting inside a commit removes the entry.
	del := edit.Clone()
	del.TotalPoints = 60
	require.NoError(t, s.Apply(ctx, &Commit{User: del, DeleteActivity: &a.ID}))
	_, err = s.GetActivity(ctx, u.ID, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testRankings(t *testing.T, s Store) {
	ctx := context.Background()
	since := time.Date(2025, time.April, 6, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, steps := range []int{1000, 5000, 3000} {
		u := mustUser(t, s, fmt.Sprintf("rank%d", i))
		ids = append(ids, u.ID)
		mustActivity(t, s, u.ID, since.Add(time.Hour), activity.Metrics{Steps: steps})
		mustActivity(t, s, u.ID, since.Add(-time.Hour), activity.Metrics{Steps: 100000})
	}

	rows, err := s.RankActivityTotals(ctx, activity.MetricSteps, since, 100)
	require.NoError(t, err)

	var mine []*leaderboard.Row
	for _, r := range rows {
		for _, id := range ids {
			if r.UserID == id {
				mine = append(mine, r)
			}
		}
	}
	require.Len(t, mine, 3)
	assert.Equal(t, []float64{5000, 3000, 1000}, []float64{mine[0].Value, mine[1].Value, mine[2].Value})

	users, err := s.RankUsers(ctx, leaderboard.CategoryStreak, 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(users), 5)
}

func testCatalog(t *testing.T, s Store) {
	ctx := context.Background()
	levels := []level.Level{{LevelNumber: 1, Title: "Beginner", MinPoints: 0, Color: "#9E9E9E"}, {LevelNumber: 2, Title: "Active", MinPoints: 101, Color: "#4CAF50"}}

	_, err := s.SeedLevels(ctx, levels)
	require.NoError(t, err)
	added, err := s.SeedLevels(ctx, levels)
	require.NoError(t, err)
	assert.Zero(t, added)

	got, err := s.ListLevels(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(got), 2)

	name := "Seed Once " + uuid.NewString()[:8]
	def := []*badge.Badge{{Name: name, Category: badge.CategoryStreak, Requirement: badge.Requirement{Type: badge.RequirementStreak, Value: 3}, SortOrder: 99}}
	n, err := s.SeedBadges(ctx, def)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.SeedBadges(ctx, def)
	require.NoError(t, err)
	assert.Zero(t, n)
}
