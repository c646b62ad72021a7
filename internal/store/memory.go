package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	rank "fitQuestAPI/internal/leaderboard"
	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/badge"
	"fitQuestAPI/internal/types/challenge"
	"fitQuestAPI/internal/types/leaderboard"
	"fitQuestAPI/internal/types/ledger"
	"fitQuestAPI/internal/types/level"
	"fitQuestAPI/internal/types/notification"
	"fitQuestAPI/internal/types/user"
)

// Memory is an in-process Store for tests and single-instance development.
// Values are copied on the way in and out so callers never share state.
type Memory struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*user.User
	clerkIDs   map[string]uuid.UUID
	usernames  map[string]uuid.UUID
	activities map[uuid.UUID]*activity.Entry
	badges     []*badge.Badge
	levels     []level.Level
	challenges map[uuid.UUID]*challenge.Challenge
	ledger     []*ledger.Entry
	devices    map[uuid.UUID][]notification.DeviceToken
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[uuid.UUID]*user.User),
		clerkIDs:   make(map[string]uuid.UUID),
		usernames:  make(map[string]uuid.UUID),
		activities: make(map[uuid.UUID]*activity.Entry),
		challenges: make(map[uuid.UUID]*challenge.Challenge),
		devices:    make(map[uuid.UUID][]notification.DeviceToken),
	}
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) CreateUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clerkIDs[u.ClerkID]; ok {
		return ErrAlreadyExists
	}
	if _, ok := m.usernames[strings.ToLower(u.Username)]; ok {
		return ErrAlreadyExists
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CurrentLevel < 1 {
		u.CurrentLevel = 1
	}
	if u.Badges == nil {
		u.Badges = map[uuid.UUID]time.Time{}
	}
	u.Version = 1

	m.users[u.ID] = u.Clone()
	m.clerkIDs[u.ClerkID] = u.ID
	m.usernames[strings.ToLower(u.Username)] = u.ID
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (m *Memory) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	m.mu.RLock()
	id, ok := m.clerkIDs[clerkID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetUser(ctx, id)
}

func (m *Memory) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*badge.Earned, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	var out []*badge.Earned
	for _, b := range m.badges {
		if at, ok := u.Badges[b.ID]; ok {
			c := *b
			out = append(out, &badge.Earned{Badge: &c, EarnedAt: at})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EarnedAt.Before(out[j].EarnedAt) })
	return out, nil
}

func (m *Memory) CreateActivity(ctx context.Context, e *activity.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[e.UserID]; !ok {
		return ErrNotFound
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	c := *e
	m.activities[e.ID] = &c
	return nil
}

func (m *Memory) GetActivity(ctx context.Context, userID, id uuid.UUID) (*activity.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.activities[id]
	if !ok || e.UserID != userID {
		return nil, ErrNotFound
	}
	c := *e
	return &c, nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func (m *Memory) ListActivities(ctx context.Context, userID uuid.UUID, q activity.Query) ([]*activity.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*activity.Entry
	for _, e := range m.activities {
		if e.UserID == userID && inRange(e.Date, q.From, q.To) {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) SumActivities(ctx context.Context, userID uuid.UUID, from, to time.Time) (activity.Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var t activity.Totals
	for _, e := range m.activities {
		if e.UserID == userID && inRange(e.Date, from, to) {
			t.Add(e)
		}
	}
	return t, nil
}

func (m *Memory) ListUnscoredActivities(ctx context.Context, createdBefore time.Time, limit int) ([]*activity.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*activity.Entry
	for _, e := range m.activities {
		if !e.Scored && e.CreatedAt.Before(createdBefore) {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) rankRow(u *user.User, value float64) *leaderboard.Row {
	return &leaderboard.Row{UserID: u.ID, Username: u.Username, Level: u.CurrentLevel, Value: value, MemberSince: u.CreatedAt}
}

func sortRows(rows []*leaderboard.Row, limit int) []*leaderboard.Row {
	sort.SliceStable(rows, func(i, j int) bool { return rank.Less(rows[i], rows[j]) })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func (m *Memory) RankUsers(ctx context.Context, by leaderboard.Category, limit int) ([]*leaderboard.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]*leaderboard.Row, 0, len(m.users))
	for _, u := range m.users {
		v := float64(u.TotalPoints)
		if by == leaderboard.CategoryStreak {
			v = float64(u.StreakDays)
		}
		rows = append(rows, m.rankRow(u, v))
	}
	return sortRows(rows, limit), nil
}

func (m *Memory) RankActivityTotals(ctx context.Context, metric activity.Metric, since time.Time, limit int) ([]*leaderboard.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := make(map[uuid.UUID]*activity.Totals)
	for _, e := range m.activities {
		if e.Date.Before(since) {
			continue
		}
		t, ok := totals[e.UserID]
		if !ok {
			t = &activity.Totals{}
			totals[e.UserID] = t
		}
		t.Add(e)
	}

	rows := make([]*leaderboard.Row, 0, len(totals))
	for id, t := range totals {
		if u, ok := m.users[id]; ok {
			rows = append(rows, m.rankRow(u, t.Value(metric)))
		}
	}
	return sortRows(rows, limit), nil
}

func (m *Memory) ListBadges(ctx context.Context) ([]*badge.Badge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*badge.Badge, 0, len(m.badges))
	for _, b := range m.badges {
		c := *b
		out = append(out, &c)
	}
	return out, nil
}

func (m *Memory) SeedBadges(ctx context.Context, defs []*badge.Badge) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make(map[string]bool, len(m.badges))
	for _, b := range m.badges {
		names[b.Name] = true
	}
	added := 0
	for _, d := range defs {
		if names[d.Name] {
			continue
		}
		c := *d
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		m.badges = append(m.badges, &c)
		names[d.Name] = true
		added++
	}
	sort.SliceStable(m.badges, func(i, j int) bool { return m.badges[i].SortOrder < m.badges[j].SortOrder })
	return added, nil
}

func (m *Memory) ListLevels(ctx context.Context) ([]level.Level, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]level.Level(nil), m.levels...), nil
}

func (m *Memory) SeedLevels(ctx context.Context, levels []level.Level) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	have := make(map[int]bool, len(m.levels))
	for _, l := range m.levels {
		have[l.LevelNumber] = true
	}
	added := 0
	for _, l := range levels {
		if !have[l.LevelNumber] {
			m.levels = append(m.levels, l)
			have[l.LevelNumber] = true
			added++
		}
	}
	sort.Slice(m.levels, func(i, j int) bool { return m.levels[i].MinPoints < m.levels[j].MinPoints })
	return added, nil
}

func (m *Memory) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[c.UserID]; !ok {
		return ErrNotFound
	}
	for _, existing := range m.challenges {
		if existing.UserID == c.UserID && existing.Type == c.Type &&
			existing.Target.Type == c.Target.Type && existing.StartDate.Equal(c.StartDate) {
			return ErrAlreadyExists
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.challenges[c.ID] = &cp
	return nil
}

func (m *Memory) ListChallenges(ctx context.Context, userID uuid.UUID, f ChallengeFilter) ([]*challenge.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*challenge.Challenge
	for _, c := range m.challenges {
		if c.UserID != userID {
			continue
		}
		if f.OpenOnly && c.Completed {
			continue
		}
		if !f.EndingAfter.IsZero() && c.EndDate.Before(f.EndingAfter) {
			continue
		}
		if !inRange(c.StartDate, f.StartingFrom, f.StartingBefore) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) ListLedger(ctx context.Context, userID uuid.UUID, limit int) ([]*ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*ledger.Entry
	for i := len(m.ledger) - 1; i >= 0; i-- {
		if e := m.ledger[i]; e.UserID == userID {
			c := *e
			out = append(out, &c)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) RegisterDevice(ctx context.Context, userID uuid.UUID, token notification.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for uid, tokens := range m.devices {
		for i, t := range tokens {
			if t.Token == token.Token {
				m.devices[uid] = append(tokens[:i:i], tokens[i+1:]...)
				break
			}
		}
	}
	m.devices[userID] = append(m.devices[userID], token)
	return nil
}

func (m *Memory) ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]notification.DeviceToken(nil), m.devices[userID]...), nil
}

func (m *Memory) Apply(ctx context.Context, c *Commit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.users[c.User.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != c.User.Version {
		return ErrVersionConflict
	}

	if c.Activity != nil {
		e, ok := m.activities[c.Activity.ID]
		if !ok || e.UserID != cur.ID {
			return ErrNotFound
		}
		if c.Activity.FirstScore && e.Scored {
			return ErrVersionConflict
		}
	}
	if c.DeleteActivity != nil {
		e, ok := m.activities[*c.DeleteActivity]
		if !ok || e.UserID != cur.ID {
			return ErrNotFound
		}
	}
	for _, b := range c.Badges {
		if cur.HasBadge(b.BadgeID) {
			return ErrVersionConflict
		}
	}
	for _, ch := range c.Challenges {
		stored, ok := m.challenges[ch.ID]
		if !ok || stored.UserID != cur.ID {
			return ErrNotFound
		}
		if stored.Completed {
			return ErrVersionConflict
		}
	}

	next := c.User.Clone()
	next.Badges = cur.Clone().Badges
	for _, b := range c.Badges {
		next.Badges[b.BadgeID] = b.EarnedAt
	}
	next.Version = cur.Version + 1
	m.users[next.ID] = next

	if c.Activity != nil {
		e := m.activities[c.Activity.ID]
		e.PointsEarned = c.Activity.Points
		e.Scored = true
		if c.Activity.Metrics != nil {
			e.Metrics = *c.Activity.Metrics
			e.UpdatedAt = c.Activity.EditedAt
		}
	}
	if c.DeleteActivity != nil {
		delete(m.activities, *c.DeleteActivity)
	}
	for _, ch := range c.Challenges {
		stored := m.challenges[ch.ID]
		stored.Completed = true
		stored.CompletedDate = ch.CompletedDate
	}
	for _, e := range c.Ledger {
		cp := *e
		m.ledger = append(m.ledger, &cp)
	}

	c.User.Version = next.Version
	return nil
}
