package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerTypes "fitQuestAPI/internal/types/ledger"
	"fitQuestAPI/internal/types/level"
	"fitQuestAPI/internal/types/user"
)

func TestApplyClampsAtZero(t *testing.T) {
	u := &user.User{TotalPoints: 30, CurrentLevel: 1}

	r := Apply(u, -100, DefaultLevels)

	assert.Equal(t, 0, u.TotalPoints)
	assert.Equal(t, -100, r.Requested)
	assert.Equal(t, -30, r.Applied)
	assert.Equal(t, 1, u.CurrentLevel)
}

func TestApplyRecomputesLevel(t *testing.T) {
	u := &user.User{TotalPoints: 90, CurrentLevel: 1}

	r := Apply(u, 20, DefaultLevels)
	assert.Equal(t, 110, u.TotalPoints)
	assert.Equal(t, 2, u.CurrentLevel)
	assert.Equal(t, 1, r.PreviousLevel)
	assert.Equal(t, 2, r.Level)

	Apply(u, 5000, DefaultLevels)
	assert.Equal(t, 6, u.CurrentLevel)

	Apply(u, -5000, DefaultLevels)
	assert.Equal(t, 2, u.CurrentLevel)
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 1}, {100, 1}, {101, 2}, {500, 2}, {501, 3}, {1501, 4}, {3000, 4}, {3001, 5}, {5001, 6}, {99999, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.points, DefaultLevels), "points %d", tt.points)
	}

	assert.Equal(t, 1, LevelFor(4000, nil))
	assert.Equal(t, 1, LevelFor(10, []level.Level{{LevelNumber: 2, MinPoints: 50}}))
}

func TestProgress(t *testing.T) {
	p := Progress(300, 2, DefaultLevels)
	assert.Equal(t, 2, p.CurrentLevel.LevelNumber)
	require.NotNil(t, p.NextLevel)
	assert.Equal(t, 3, p.NextLevel.LevelNumber)
	// (300-101)/(501-101) = 49.75%
	assert.Equal(t, 49, p.Progress)
	assert.Equal(t, 201, p.PointsToNext)

	top := Progress(7000, 6, DefaultLevels)
	assert.Nil(t, top.NextLevel)
	assert.Equal(t, 100, top.Progress)
	assert.Zero(t, top.PointsToNext)

	empty := Progress(250, 1, nil)
	assert.Equal(t, 1, empty.CurrentLevel.LevelNumber)
	assert.Nil(t, empty.NextLevel)
	assert.Equal(t, 100, empty.Progress)
}

func TestProgressClampsStaleLevel(t *testing.T) {
	// A cached level ahead of the points total must not produce negatives.
	p := Progress(50, 2, DefaultLevels)
	assert.Equal(t, 0, p.Progress)
	assert.Equal(t, 451, p.PointsToNext)
}

func TestBookRecordsAppliedDeltas(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	u := &user.User{ID: uuid.New(), TotalPoints: 95, CurrentLevel: 1}
	book := NewBook(u, DefaultLevels, now)
	ref := uuid.New()

	book.Post(ledgerTypes.SourceActivity, &ref, 10)
	book.Post(ledgerTypes.SourceActivityEdit, &ref, 0)
	book.Post(ledgerTypes.SourceActivityDelete, &ref, -200)

	entries := book.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 10, entries[0].Applied)
	assert.Equal(t, 105, entries[0].BalanceAfter)
	assert.Equal(t, -200, entries[1].Requested)
	assert.Equal(t, -105, entries[1].Applied)
	assert.Equal(t, 0, entries[1].BalanceAfter)

	sum := 95
	for _, e := range entries {
		sum += e.Applied
	}
	assert.Equal(t, u.TotalPoints, sum)

	from, to := book.LevelChange()
	assert.Equal(t, 1, from)
	assert.Equal(t, 1, to)
}
