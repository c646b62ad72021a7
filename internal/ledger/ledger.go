// Package ledger applies point deltas to a user's running total and keeps
// the cached level in step with it.
package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"fitQuestAPI/internal/types/ledger"
	"fitQuestAPI/internal/types/level"
	"fitQuestAPI/internal/types/user"
)

var DefaultLevels = []level.Level{
	{LevelNumber: 1, Title: "Beginner", MinPoints: 0, Color: "#9E9E9E"},
	{LevelNumber: 2, Title: "Active", MinPoints: 101, Color: "#4CAF50"},
	{LevelNumber: 3, Title: "Fitness Enthusiast", MinPoints: 501, Color: "#2196F3"},
	{LevelNumber: 4, Title: "Athlete", MinPoints: 1501, Color: "#FF9800"},
	{LevelNumber: 5, Title: "Champion", MinPoints: 3001, Color: "#9C27B0"},
	{LevelNumber: 6, Title: "Elite", MinPoints: 5001, Color: "#F44336"},
}

type Result struct {
	Requested     int
	Applied       int
	Balance       int
	PreviousLevel int
	Level         int
}

// Apply adds delta to u.TotalPoints, clamping at zero, and recomputes
// u.CurrentLevel.
func Apply(u *user.User, delta int, levels []level.Level) Result {
	r := Result{Requested: delta, PreviousLevel: u.CurrentLevel}

	next := u.TotalPoints + delta
	if next < 0 {
		next = 0
	}
	r.Applied = next - u.TotalPoints
	u.TotalPoints = next
	u.CurrentLevel = LevelFor(next, levels)

	r.Balance = u.TotalPoints
	r.Level = u.CurrentLevel
	return r
}

// LevelFor picks the highest level whose threshold is covered by points.
// With no matching level, including an empty table, it returns 1.
func LevelFor(points int, levels []level.Level) int {
	best := 0
	for _, l := range levels {
		if l.MinPoints <= points && l.LevelNumber > best {
			best = l.LevelNumber
		}
	}
	return max(best, 1)
}

func sorted(levels []level.Level) []level.Level {
	out := append([]level.Level(nil), levels...)
	sort.Slice(out, func(i, j int) bool { return out[i].LevelNumber < out[j].LevelNumber })
	return out
}

// Progress reports how far points are through currentLevel towards the next
// one. The top level, or a missing table, reports 100%.
func Progress(points, currentLevel int, levels []level.Level) level.Progress {
	p := level.Progress{
		CurrentLevel: level.Level{LevelNumber: max(currentLevel, 1)},
		Progress:     100,
		TotalPoints:  points,
	}

	ordered := sorted(levels)
	idx := -1
	for i, l := range ordered {
		if l.LevelNumber == currentLevel {
			idx = i
			break
		}
	}
	if idx < 0 {
		return p
	}
	p.CurrentLevel = ordered[idx]

	var next *level.Level
	for i := idx + 1; i < len(ordered); i++ {
		if ordered[i].LevelNumber == currentLevel+1 {
			n := ordered[i]
			next = &n
			break
		}
	}
	if next == nil {
		return p
	}
	p.NextLevel = next

	span := next.MinPoints - p.CurrentLevel.MinPoints
	if span <= 0 {
		return p
	}
	pct := int(math.Floor(float64(points-p.CurrentLevel.MinPoints) / float64(span) * 100))
	p.Progress = min(max(pct, 0), 100)
	p.PointsToNext = max(next.MinPoints-points, 0)
	return p
}

// Book collects the deltas posted against one user inside a single unit of
// work so they can be committed together with the user row.
type Book struct {
	user       *user.User
	levels     []level.Level
	now        time.Time
	startLevel int
	entries    []*ledger.Entry
}

func NewBook(u *user.User, levels []level.Level, now time.Time) *Book {
	return &Book{user: u, levels: levels, now: now, startLevel: u.CurrentLevel}
}

// Post applies delta and records it. Zero deltas are applied but not
// recorded.
func (b *Book) Post(source ledger.Source, ref *uuid.UUID, delta int) Result {
	r := Apply(b.user, delta, b.levels)
	if delta == 0 {
		return r
	}
	b.entries = append(b.entries, &ledger.Entry{
		ID:           uuid.New(),
		UserID:       b.user.ID,
		Source:       source,
		ReferenceID:  ref,
		Requested:    r.Requested,
		Applied:      r.Applied,
		BalanceAfter: r.Balance,
		CreatedAt:    b.now,
	})
	return r
}

func (b *Book) Entries() []*ledger.Entry {
	return b.entries
}

// LevelChange reports the level before the first post and after the last.
func (b *Book) LevelChange() (from, to int) {
	return b.startLevel, b.user.CurrentLevel
}
