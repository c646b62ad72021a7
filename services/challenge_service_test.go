package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitQuestAPI/internal/types/activity"
)

func TestGetActiveCreatesDefaultsLazily(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice")
	f.clock.Set(monday)

	first, err := f.challenges.GetActive(f.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, first, 3)
	for _, c := range first {
		assert.Zero(t, c.Progress)
	}

	second, err := f.challenges.GetActive(f.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, second, 3)

	ids := map[string]bool{}
	for _, c := range first {
		ids[c.ID.String()] = true
	}
	for _, c := range second {
		assert.True(t, ids[c.ID.String()], "GetActive issued a duplicate challenge")
	}
}

func TestDefaultsFollowRecentHistory(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice")

	f.log(t, u.ID, monday.AddDate(0, 0, -2), activity.Metrics{Steps: 10000, Calories: 500})
	f.log(t, u.ID, monday.AddDate(0, 0, -1), activity.Metrics{Steps: 6000, Calories: 300})

	f.clock.Set(monday)
	created, err := f.challenges.GenerateDefaults(f.ctx, u.ID)
	require.NoError(t, err)

	targets := map[activity.Metric]float64{}
	for _, c := range created {
		targets[c.Target.Type] = c.Target.Value
		assert.Equal(t, 50, c.PointsReward)
	}
	// Mean 8000 steps and 400 calories, raised by 20%. No distance logged.
	assert.Equal(t, map[activity.Metric]float64{
		activity.MetricSteps:    9600,
		activity.MetricCalories: 480,
	}, targets)
}

func TestDefaultsSkipCompletedAndReuseOpen(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice")
	f.clock.Set(monday)

	created, err := f.challenges.GenerateDefaults(f.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, created, 3)

	f.log(t, u.ID, monday.Add(time.Hour), steps(6000))

	again, err := f.challenges.GenerateDefaults(f.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, again, 2)
	issued := map[string]bool{}
	for _, c := range created {
		issued[c.ID.String()] = true
	}
	metrics := map[activity.Metric]bool{}
	for _, c := range again {
		assert.True(t, issued[c.ID.String()], "open challenge was not reused")
		metrics[c.Target.Type] = true
	}
	// Steps is done. Distance is no longer targeted but is still open.
	assert.Equal(t, map[activity.Metric]bool{
		activity.MetricCalories: true,
		activity.MetricDistance: true,
	}, metrics)

	active, err := f.challenges.GetActive(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestActiveProgressIsLive(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice")
	f.clock.Set(monday)
	_, err := f.challenges.GenerateDefaults(f.ctx, u.ID)
	require.NoError(t, err)

	f.log(t, u.ID, monday.Add(time.Hour), activity.Metrics{Calories: 180})

	active, err := f.challenges.GetActive(f.ctx, u.ID)
	require.NoError(t, err)
	for _, c := range active {
		if c.Target.Type == activity.MetricCalories {
			assert.Equal(t, 180.0, c.CurrentValue)
			assert.Equal(t, 50, c.Progress)
		}
	}
}

func TestDefaultsLookBackSevenDays(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice")

	f.log(t, u.ID, monday.AddDate(0, 0, -7), activity.Metrics{Steps: 50000})
	f.log(t, u.ID, monday.AddDate(0, 0, -6), activity.Metrics{Steps: 10000})

	f.clock.Set(monday)
	created, err := f.challenges.GenerateDefaults(f.ctx, u.ID)
	require.NoError(t, err)

	for _, c := range created {
		if c.Target.Type == activity.MetricSteps {
			assert.Equal(t, 12000.0, c.Target.Value)
		}
	}
}
