package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"fitQuestAPI/internal/types/activity"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		metrics activity.Metrics
		streak  int
		want    int
	}{
		{"hundred steps", activity.Metrics{Steps: 100}, 0, 1},
		{"steps floor", activity.Metrics{Steps: 199}, 0, 1},
		{"steps cap", activity.Metrics{Steps: 50000}, 0, 100},
		{"distance", activity.Metrics{Distance: 2.55}, 0, 25},
		{"distance cap", activity.Metrics{Distance: 42}, 0, 50},
		{"exercise", activity.Metrics{ExerciseTime: 12.5}, 0, 25},
		{"exercise cap", activity.Metrics{ExerciseTime: 90}, 0, 60},
		{"calories", activity.Metrics{Calories: 255}, 0, 25},
		{"calories cap", activity.Metrics{Calories: 900}, 0, 50},
		{"two metrics bonus", activity.Metrics{Steps: 1000, Calories: 100}, 0, 10 + 10 + 10},
		{"three metrics bonus", activity.Metrics{Steps: 1000, Calories: 100, Distance: 1}, 0, 10 + 10 + 10 + 10},
		{"all metrics bonus", activity.Metrics{Steps: 100, Distance: 0.1, ExerciseTime: 0.5, Calories: 10}, 0, 4 + 20},
		{"streak bonus", activity.Metrics{Steps: 100}, 3, 1 + 30},
		{"streak bonus cap", activity.Metrics{Steps: 100}, 40, 1 + 50},
		{"everything maxed", activity.Metrics{Steps: 10000, Distance: 10, ExerciseTime: 60, Calories: 1000}, 10, 330},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.metrics, tt.streak))
		})
	}
}

func TestExplainSumsComponents(t *testing.T) {
	b := Explain(activity.Metrics{Steps: 4321, Distance: 3.3, ExerciseTime: 25, Calories: 333}, 2)

	assert.Equal(t, 43, b.Steps)
	assert.Equal(t, 33, b.Distance)
	assert.Equal(t, 50, b.ExerciseTime)
	assert.Equal(t, 33, b.Calories)
	assert.Equal(t, 20, b.Diversity)
	assert.Equal(t, 20, b.Streak)
	assert.Equal(t, b.Steps+b.Distance+b.ExerciseTime+b.Calories+b.Diversity+b.Streak, b.Total)
}

func TestComputeStaysWithinBounds(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		m := activity.Metrics{
			Steps:        r.Intn(60000),
			Distance:     r.Float64() * 60,
			ExerciseTime: r.Float64() * 300,
			Calories:     r.Intn(3000),
		}
		if r.Intn(3) == 0 {
			m.Distance = 0
		}
		points := Compute(m, r.Intn(120))

		assert.GreaterOrEqual(t, points, 0)
		assert.LessOrEqual(t, points, MaxPoints)
	}
	assert.Equal(t, 330, MaxPoints)
}
