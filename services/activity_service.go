package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"fitQuestAPI/internal/dates"
	"fitQuestAPI/internal/store"
	"fitQuestAPI/internal/types/activity"
)

const (
	DefaultActivityLimit = 30
	MaxActivityLimit     = 100

	// unscoredGrace keeps the sweep away from entries still being scored
	// by the request that created them.
	unscoredGrace = time.Minute
	sweepBatch    = 100
)

type ActivityService struct {
	store  store.Store
	engine *GamificationService
	loc    *time.Location
	now    func() time.Time
}

func NewActivityService(st store.Store, engine *GamificationService, loc *time.Location) *ActivityService {
	if loc == nil {
		loc = time.UTC
	}
	return &ActivityService{store: st, engine: engine, loc: loc, now: time.Now}
}

func (s *ActivityService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateResult carries the stored entry and, when the engine succeeded, its
// outcome. A failed engine run leaves the entry unscored for the sweep.
type CreateResult struct {
	Activity          *activity.Entry  `json:"activity"`
	Gamification      *ActivityOutcome `json:"gamification,omitempty"`
	GamificationError string           `json:"gamification_error,omitempty"`
}

func (s *ActivityService) Create(ctx context.Context, userID uuid.UUID, req *activity.CreateRequest) (*CreateResult, error) {
	now := s.now()
	metrics, date, err := req.Validate(now, s.loc)
	if err != nil {
		return nil, err
	}

	entry := &activity.Entry{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      date,
		Metrics:   metrics,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateActivity(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	res := &CreateResult{Activity: entry}
	outcome, err := s.engine.OnActivityWritten(ctx, userID, entry.ID)
	if errors.Is(err, ErrAlreadyScored) {
		// The sweep got there first.
		if scored, err := s.store.GetActivity(ctx, userID, entry.ID); err == nil {
			res.Activity = scored
		}
		return res, nil
	}
	if err != nil {
		log.Printf("ActivityService: scoring activity %s failed: %v", entry.ID, err)
		res.GamificationError = "points will be applied shortly"
		return res, nil
	}
	res.Activity = outcome.Activity
	res.Gamification = outcome
	return res, nil
}

type ListParams struct {
	Date      string
	StartDate string
	EndDate   string
	Limit     int
}

func clampActivityLimit(limit int) int {
	if limit <= 0 {
		return DefaultActivityLimit
	}
	return min(limit, MaxActivityLimit)
}

// List filters by a single day when Date is set, otherwise by the inclusive
// day range StartDate..EndDate. Newest first.
func (s *ActivityService) List(ctx context.Context, userID uuid.UUID, p ListParams) ([]*activity.Entry, error) {
	q := activity.Query{Limit: clampActivityLimit(p.Limit)}

	switch {
	case p.Date != "":
		day, err := activity.ParseDate(p.Date, s.loc)
		if err != nil {
			return nil, err
		}
		q.From = dates.StartOfDay(day, s.loc)
		q.To = q.From.AddDate(0, 0, 1)
	case p.StartDate != "" || p.EndDate != "":
		if p.StartDate != "" {
			from, err := activity.ParseDate(p.StartDate, s.loc)
			if err != nil {
				return nil, err
			}
			q.From = dates.StartOfDay(from, s.loc)
		}
		if p.EndDate != "" {
			to, err := activity.ParseDate(p.EndDate, s.loc)
			if err != nil {
				return nil, err
			}
			q.To = dates.StartOfTomorrow(to, s.loc)
		}
	}

	return s.store.ListActivities(ctx, userID, q)
}

func (s *ActivityService) Get(ctx context.Context, userID, id uuid.UUID) (*activity.Entry, error) {
	return s.store.GetActivity(ctx, userID, id)
}

type TodaySummary struct {
	Date       time.Time         `json:"date"`
	Totals     activity.Totals   `json:"totals"`
	Activities []*activity.Entry `json:"activities"`
}

func (s *ActivityService) Today(ctx context.Context, userID uuid.UUID) (*TodaySummary, error) {
	start := dates.StartOfDay(s.now(), s.loc)
	entries, err := s.store.ListActivities(ctx, userID, activity.Query{From: start, To: start.AddDate(0, 0, 1)})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*activity.Entry{}
	}
	return &TodaySummary{Date: start, Totals: activity.Sum(entries), Activities: entries}, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Stats summarizes a trailing period per day. daily covers today, weekly the
// last 7 days and monthly the last 30. Averages are over active days.
func (s *ActivityService) Stats(ctx context.Context, userID uuid.UUID, period string) (*activity.Stats, error) {
	now := s.now()
	var from time.Time
	switch period {
	case "daily":
		from = dates.StartOfDay(now, s.loc)
	case "", "weekly":
		period = "weekly"
		from = now.AddDate(0, 0, -7)
	case "monthly":
		from = now.AddDate(0, 0, -30)
	default:
		return nil, &activity.ValidationError{Field: "period", Message: "must be daily, weekly or monthly"}
	}
	to := dates.StartOfTomorrow(now, s.loc)

	entries, err := s.store.ListActivities(ctx, userID, activity.Query{From: from, To: to})
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*activity.DaySummary)
	var order []string
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		key := dates.StartOfDay(e.Date, s.loc).Format("2006-01-02")
		day, ok := byDay[key]
		if !ok {
			day = &activity.DaySummary{Date: key}
			byDay[key] = day
			order = append(order, key)
		}
		day.Totals.Add(e)
	}

	stats := &activity.Stats{Period: period, From: from, To: to, Days: make([]activity.DaySummary, 0, len(order))}
	for _, key := range order {
		day := byDay[key]
		stats.Days = append(stats.Days, *day)
		stats.Totals.Metrics = stats.Totals.Metrics.Add(day.Metrics)
		stats.Totals.Points += day.Points
		stats.Totals.Count += day.Count
	}

	if n := float64(len(order)); n > 0 {
		stats.ActiveDays = len(order)
		stats.Averages = activity.Averages{
			Steps:        math.Round(float64(stats.Totals.Steps) / n),
			Distance:     round(stats.Totals.Distance/n, 2),
			ExerciseTime: math.Round(stats.Totals.ExerciseTime / n),
			Calories:     math.Round(float64(stats.Totals.Calories) / n),
			Points:       math.Round(float64(stats.Totals.Points) / n),
		}
	}
	stats.Totals.Distance = round(stats.Totals.Distance, 2)
	return stats, nil
}

// Update applies the changed metrics and rescores the entry. The metrics
// are only written together with the new points. The date is fixed at
// creation.
func (s *ActivityService) Update(ctx context.Context, userID, id uuid.UUID, req *activity.UpdateRequest) (*EditOutcome, error) {
	current, err := s.store.GetActivity(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := req.Apply(current.Metrics); err != nil {
		return nil, err
	}

	return s.engine.OnActivityEdited(ctx, userID, id, req)
}

func (s *ActivityService) Delete(ctx context.Context, userID, id uuid.UUID) (int, error) {
	return s.engine.OnActivityDeleted(ctx, userID, id)
}

// ScoreUnscored retries the engine for entries whose scoring never landed.
// It returns how many were scored.
func (s *ActivityService) ScoreUnscored(ctx context.Context) (int, error) {
	pending, err := s.store.ListUnscoredActivities(ctx, s.now().Add(-unscoredGrace), sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list unscored activities: %w", err)
	}

	scored := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			return scored, ctx.Err()
		}
		_, err := s.engine.OnActivityWritten(ctx, e.UserID, e.ID)
		switch {
		case err == nil:
			scored++
		case errors.Is(err, ErrAlreadyScored), errors.Is(err, store.ErrNotFound):
		default:
			log.Printf("ActivityService: sweep could not score activity %s: %v", e.ID, err)
		}
	}

	if scored > 0 {
		log.Printf("ActivityService: sweep scored %d activities", scored)
	}
	return scored, nil
}
