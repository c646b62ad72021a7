package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	challengerules "fitQuestAPI/internal/challenge"
	"fitQuestAPI/internal/dates"
	"fitQuestAPI/internal/store"
	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/challenge"
)

type ChallengeService struct {
	store  store.Store
	engine *GamificationService
	loc    *time.Location
	now    func() time.Time
}

func NewChallengeService(st store.Store, engine *GamificationService, loc *time.Location) *ChallengeService {
	if loc == nil {
		loc = time.UTC
	}
	return &ChallengeService{store: st, engine: engine, loc: loc, now: time.Now}
}

func (s *ChallengeService) SetClock(now func() time.Time) {
	s.now = now
}

// GenerateDefaults makes sure today's daily challenges exist. An open
// challenge for a metric is reused and a metric already completed today is
// not issued again.
func (s *ChallengeService) GenerateDefaults(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	var out []*challenge.Challenge
	err := s.engine.withUserLock(userID, func() error {
		now := s.now()
		today := dates.StartOfDay(now, s.loc)

		history, err := s.store.ListActivities(ctx, userID, activity.Query{
			From: today.AddDate(0, 0, 1-challengerules.HistoryDays),
			To:   dates.StartOfTomorrow(now, s.loc),
		})
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}

		existing, err := s.todays(ctx, userID, today)
		if err != nil {
			return err
		}

		out = out[:0]
		for _, target := range challengerules.DefaultTargets(history) {
			if c, ok := existing[target.Type]; ok {
				if !c.Completed {
					out = append(out, c)
				}
				continue
			}

			c := challengerules.New(userID, challenge.TypeDaily, target, now, s.loc)
			err := s.store.CreateChallenge(ctx, c)
			if errors.Is(err, store.ErrAlreadyExists) {
				// Another instance issued it first.
				again, err := s.todays(ctx, userID, today)
				if err != nil {
					return err
				}
				if c, ok := again[target.Type]; ok && !c.Completed {
					out = append(out, c)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to create challenge: %w", err)
			}
			out = append(out, c)
		}

		// Open challenges for metrics no longer targeted stay issued.
		for _, c := range existing {
			if !c.Completed && !containsChallenge(out, c.ID) {
				out = append(out, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func containsChallenge(list []*challenge.Challenge, id uuid.UUID) bool {
	for _, c := range list {
		if c.ID == id {
			return true
		}
	}
	return false
}

// todays indexes the user's daily challenges starting today by metric.
func (s *ChallengeService) todays(ctx context.Context, userID uuid.UUID, today time.Time) (map[activity.Metric]*challenge.Challenge, error) {
	list, err := s.store.ListChallenges(ctx, userID, store.ChallengeFilter{
		StartingFrom:   today,
		StartingBefore: today.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	byMetric := make(map[activity.Metric]*challenge.Challenge, len(list))
	for _, c := range list {
		if c.Type == challenge.TypeDaily {
			byMetric[c.Target.Type] = c
		}
	}
	return byMetric, nil
}

// GetActive lists open challenges with live progress. Today's defaults are
// created first when the user has no challenge starting today at all.
func (s *ChallengeService) GetActive(ctx context.Context, userID uuid.UUID) ([]*challenge.WithProgress, error) {
	now := s.now()
	today := dates.StartOfDay(now, s.loc)

	todays, err := s.todays(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if len(todays) == 0 {
		if _, err := s.GenerateDefaults(ctx, userID); err != nil {
			return nil, err
		}
	}

	open, err := s.store.ListChallenges(ctx, userID, store.ChallengeFilter{OpenOnly: true, EndingAfter: now})
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	sums := make(map[window]activity.Totals)
	out := make([]*challenge.WithProgress, 0, len(open))
	for _, c := range open {
		if c.StartDate.After(now) {
			continue
		}
		key := window{c.StartDate.UnixNano(), c.EndDate.UnixNano()}
		totals, ok := sums[key]
		if !ok {
			totals, err = s.store.SumActivities(ctx, userID, c.StartDate, c.EndDate)
			if err != nil {
				return nil, fmt.Errorf("failed to sum challenge window: %w", err)
			}
			sums[key] = totals
		}
		out = append(out, challengerules.WithProgress(c, totals))
	}
	return out, nil
}

func (s *ChallengeService) Check(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error) {
	return s.engine.CheckChallenges(ctx, userID)
}
