package leaderboard

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitQuestAPI/internal/types/leaderboard"
)

func row(name string, value float64, since time.Time) *leaderboard.Row {
	return &leaderboard.Row{UserID: uuid.New(), Username: name, Level: 1, Value: value, MemberSince: since}
}

func TestRankTieBreakIsDeterministic(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := row("A", 100, base)
	b := row("B", 300, base.Add(time.Hour))
	c := row("C", 300, base.Add(2*time.Hour))

	for i := 0; i < 20; i++ {
		input := []*leaderboard.Row{a, c, b}
		if i%2 == 1 {
			input = []*leaderboard.Row{c, a, b}
		}
		entries := Rank(input, 10)

		require.Len(t, entries, 3)
		assert.Equal(t, "B", entries[0].Username)
		assert.Equal(t, "C", entries[1].Username)
		assert.Equal(t, "A", entries[2].Username)
		assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
	}
}

func TestRankFallsBackToID(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	x := &leaderboard.Row{UserID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Username: "x", Value: 5, MemberSince: since}
	y := &leaderboard.Row{UserID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Username: "y", Value: 5, MemberSince: since}

	entries := Rank([]*leaderboard.Row{x, y}, 0)

	assert.Equal(t, "y", entries[0].Username)
	assert.Equal(t, "x", entries[1].Username)
}

func TestRankTruncates(t *testing.T) {
	now := time.Now()
	rows := []*leaderboard.Row{row("a", 1, now), row("b", 2, now), row("c", 3, now)}

	entries := Rank(rows, 2)

	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Username)
	assert.Len(t, rows, 3)
}

func TestWindowStart(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, time.June, 11, 15, 0, 0, 0, loc)

	week, ok := WindowStart(leaderboard.PeriodWeekly, now, loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.June, 8, 0, 0, 0, 0, loc), week)
	assert.Equal(t, time.Sunday, week.Weekday())

	month, ok := WindowStart(leaderboard.PeriodMonthly, now, loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, loc), month)

	_, ok = WindowStart(leaderboard.PeriodOverall, now, loc)
	assert.False(t, ok)
}

func TestFindRank(t *testing.T) {
	now := time.Now()
	a, b := row("a", 10, now), row("b", 20, now)
	board := &leaderboard.Board{Period: leaderboard.PeriodWeekly, Category: leaderboard.CategorySteps, Entries: Rank([]*leaderboard.Row{a, b}, 10)}

	r := FindRank(board, a.UserID)
	assert.True(t, r.Ranked)
	assert.Equal(t, 2, r.Rank)
	assert.Equal(t, 10.0, r.Value)

	missing := FindRank(board, uuid.New())
	assert.False(t, missing.Ranked)
	assert.Equal(t, UnrankedMessage, missing.Message)
}

func TestParse(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, leaderboard.PeriodOverall, p)

	_, err = ParsePeriod("yearly")
	assert.Error(t, err)

	c, err := ParseCategory("streak")
	require.NoError(t, err)
	_, ok := Metric(c)
	assert.False(t, ok)

	_, err = ParseCategory("sleep")
	assert.Error(t, err)

	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, MaxLimit, ClampLimit(1000))
	assert.Equal(t, 25, ClampLimit(25))
}
