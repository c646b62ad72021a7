// Package badge decides which catalogue badges a user has newly qualified
// for. Requirement types are resolved through a table of measures so new
// kinds of badge only need a Register call.
package badge

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/badge"
	"fitQuestAPI/internal/types/user"
)

// StatsSource answers lifetime aggregate queries over a user's activities.
type StatsSource interface {
	LifetimeTotals(ctx context.Context, userID uuid.UUID) (activity.Totals, error)
}

// StatsCache memoizes lifetime totals for the duration of one evaluation.
// Create a fresh cache for every call; it is not safe for concurrent use.
type StatsCache struct {
	source   StatsSource
	userID   uuid.UUID
	lifetime *activity.Totals
	queries  int
}

func NewStatsCache(source StatsSource, userID uuid.UUID) *StatsCache {
	return &StatsCache{source: source, userID: userID}
}

func (c *StatsCache) Lifetime(ctx context.Context) (activity.Totals, error) {
	if c.lifetime != nil {
		return *c.lifetime, nil
	}
	c.queries++
	t, err := c.source.LifetimeTotals(ctx, c.userID)
	if err != nil {
		return activity.Totals{}, fmt.Errorf("lifetime totals: %w", err)
	}
	c.lifetime = &t
	return t, nil
}

// Queries is the number of times the underlying source was hit.
func (c *StatsCache) Queries() int {
	return c.queries
}

// Subject is what a badge is judged against. Day is the aggregate of the
// calendar day touched by the triggering event, nil when there is none.
type Subject struct {
	User *user.User
	Day  *activity.Totals
}

// Measure returns the value compared with a badge's requirement. ok is false
// when the requirement cannot be judged in this call.
type Measure func(ctx context.Context, b *badge.Badge, s Subject, stats *StatsCache) (value float64, ok bool, err error)

type Evaluator struct {
	measures map[badge.RequirementType]Measure
}

func NewEvaluator() *Evaluator {
	e := &Evaluator{measures: make(map[badge.RequirementType]Measure)}
	e.Register(badge.RequirementSteps, metricMeasure(activity.MetricSteps))
	e.Register(badge.RequirementDistance, metricMeasure(activity.MetricDistance))
	e.Register(badge.RequirementCalories, metricMeasure(activity.MetricCalories))
	e.Register(badge.RequirementExerciseTime, metricMeasure(activity.MetricExerciseTime))
	e.Register(badge.RequirementStreak, streakMeasure)
	e.Register(badge.RequirementTotalActivities, totalActivitiesMeasure)
	e.Register(badge.RequirementPoints, pointsMeasure)
	return e
}

func (e *Evaluator) Register(t badge.RequirementType, m Measure) {
	e.measures[t] = m
}

// Evaluate makes one pass over defs in order. Each qualifying badge the user
// does not hold is handed to award before the next definition is examined,
// so a reward becomes visible to later definitions only.
func (e *Evaluator) Evaluate(ctx context.Context, defs []*badge.Badge, s Subject, stats *StatsCache, award func(*badge.Badge)) ([]*badge.Badge, error) {
	var earned []*badge.Badge
	for _, b := range defs {
		if s.User.HasBadge(b.ID) {
			continue
		}

		measure, ok := e.measures[b.Requirement.Type]
		if !ok {
			log.Printf("BadgeEvaluator: no measure for requirement %q on badge %q", b.Requirement.Type, b.Name)
			continue
		}

		value, ok, err := measure(ctx, b, s, stats)
		if err != nil {
			return earned, fmt.Errorf("evaluate badge %q: %w", b.Name, err)
		}
		if !ok || value < b.Requirement.Value {
			continue
		}

		if award != nil {
			award(b)
		}
		earned = append(earned, b)
	}
	return earned, nil
}

// metricMeasure compares activity badges against the event's day and every
// other category against lifetime totals.
func metricMeasure(metric activity.Metric) Measure {
	return func(ctx context.Context, b *badge.Badge, s Subject, stats *StatsCache) (float64, bool, error) {
		if b.Category == badge.CategoryActivity {
			if s.Day == nil {
				return 0, false, nil
			}
			return s.Day.Value(metric), true, nil
		}
		t, err := stats.Lifetime(ctx)
		if err != nil {
			return 0, false, err
		}
		return t.Value(metric), true, nil
	}
}

func streakMeasure(_ context.Context, _ *badge.Badge, s Subject, _ *StatsCache) (float64, bool, error) {
	return float64(s.User.StreakDays), true, nil
}

func totalActivitiesMeasure(ctx context.Context, _ *badge.Badge, _ Subject, stats *StatsCache) (float64, bool, error) {
	t, err := stats.Lifetime(ctx)
	if err != nil {
		return 0, false, err
	}
	return float64(t.Count), true, nil
}

func pointsMeasure(_ context.Context, _ *badge.Badge, s Subject, _ *StatsCache) (float64, bool, error) {
	return float64(s.User.TotalPoints), true, nil
}
