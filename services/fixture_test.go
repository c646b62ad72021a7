package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pointsledger "fitQuestAPI/internal/ledger"
	"fitQuestAPI/internal/store"
	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/badge"
	"fitQuestAPI/internal/types/notification"
	"fitQuestAPI/internal/types/user"
)

// monday is a Monday at noon UTC.
var monday = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recorder struct {
	mu     sync.Mutex
	events []*notification.Event
}

func (r *recorder) Publish(evt *notification.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) kinds() []notification.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	ctx          context.Context
	store        *store.Memory
	clock        *fakeClock
	events       *recorder
	engine       *GamificationService
	activities   *ActivityService
	challenges   *ChallengeService
	leaderboards *LeaderboardService
	users        *UserService
}

func newFixture(t *testing.T, defs ...*badge.Badge) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()
	_, err := st.SeedLevels(ctx, pointsledger.DefaultLevels)
	require.NoError(t, err)
	if len(defs) > 0 {
		_, err = st.SeedBadges(ctx, defs)
		require.NoError(t, err)
	}

	f := &fixture{ctx: ctx, store: st, clock: &fakeClock{t: monday}, events: &recorder{}}
	f.engine = NewGamificationService(st, time.UTC, 20)
	f.engine.SetClock(f.clock.Now)
	f.engine.SetPublisher(f.events)

	f.activities = NewActivityService(st, f.engine, time.UTC)
	f.activities.SetClock(f.clock.Now)
	f.challenges = NewChallengeService(st, f.engine, time.UTC)
	f.challenges.SetClock(f.clock.Now)
	f.leaderboards = NewLeaderboardService(st, time.UTC)
	f.leaderboards.SetClock(f.clock.Now)
	f.users = NewUserService(st, f.leaderboards)
	return f
}

func (f *fixture) user(t *testing.T, name string) *user.User {
	t.Helper()
	u, err := f.users.Register(f.ctx, "clerk_"+name, &user.RegisterRequest{Username: name})
	require.NoError(t, err)
	return u
}

// log records an activity dated at, moving the clock there first.
func (f *fixture) log(t *testing.T, userID uuid.UUID, at time.Time, m activity.Metrics) *CreateResult {
	t.Helper()
	return f.logAt(t, userID, at, at, m)
}

// logAt submits an activity dated date while the clock reads now.
func (f *fixture) logAt(t *testing.T, userID uuid.UUID, now, date time.Time, m activity.Metrics) *CreateResult {
	t.Helper()
	f.clock.Set(now)
	dateStr := date.Format(time.RFC3339)
	res, err := f.activities.Create(f.ctx, userID, &activity.CreateRequest{
		Date:         &dateStr,
		Steps:        &m.Steps,
		Distance:     &m.Distance,
		ExerciseTime: &m.ExerciseTime,
		Calories:     &m.Calories,
	})
	require.NoError(t, err)
	require.Empty(t, res.GamificationError)
	require.NotNil(t, res.Gamification)
	return res
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *user.User {
	t.Helper()
	u, err := f.store.GetUser(f.ctx, id)
	require.NoError(t, err)
	return u
}

// requireBalanced checks the user's total against the ledger and against
// the points carried by activities, badges and challenges.
func (f *fixture) requireBalanced(t *testing.T, id uuid.UUID) {
	t.Helper()
	u := f.reload(t, id)

	entries, err := f.store.ListLedger(f.ctx, id, 0)
	require.NoError(t, err)
	applied := 0
	for _, e := range entries {
		applied += e.Applied
	}
	require.Equal(t, u.TotalPoints, applied, "ledger does not add up to the user's total")
	require.GreaterOrEqual(t, u.TotalPoints, 0)
}

func steps(n int) activity.Metrics {
	return activity.Metrics{Steps: n}
}
