package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	badgeeval "fitQuestAPI/internal/badge"
	challengerules "fitQuestAPI/internal/challenge"
	"fitQuestAPI/internal/dates"
	pointsledger "fitQuestAPI/internal/ledger"
	"fitQuestAPI/internal/scoring"
	"fitQuestAPI/internal/store"
	"fitQuestAPI/internal/streak"
	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/badge"
	"fitQuestAPI/internal/types/challenge"
	"fitQuestAPI/internal/types/ledger"
	"fitQuestAPI/internal/types/level"
	"fitQuestAPI/internal/types/notification"
	"fitQuestAPI/internal/types/user"
)

var ErrAlreadyScored = errors.New("activity already scored")

const (
	DefaultLedgerLimit = 50
	MaxLedgerLimit     = 100
)

// EventPublisher receives events once the commit that produced them landed.
type EventPublisher interface {
	Publish(evt *notification.Event)
}

type ActivityOutcome struct {
	Activity            *activity.Entry        `json:"activity"`
	PointsEarned        int                    `json:"points_earned"`
	Breakdown           scoring.Breakdown      `json:"breakdown"`
	StreakDays          int                    `json:"streak_days"`
	MilestoneBonus      int                    `json:"milestone_bonus,omitempty"`
	NewBadges           []*badge.Badge         `json:"new_badges,omitempty"`
	CompletedChallenges []*challenge.Challenge `json:"completed_challenges,omitempty"`
	TotalPoints         int                    `json:"total_points"`
	Level               int                    `json:"level"`
	LeveledUp           bool                   `json:"leveled_up,omitempty"`
	Warnings            []string               `json:"warnings,omitempty"`
}

type EditOutcome struct {
	Activity            *activity.Entry        `json:"activity"`
	NewPointsEarned     int                    `json:"new_points_earned"`
	Delta               int                    `json:"delta"`
	NewBadges           []*badge.Badge         `json:"new_badges,omitempty"`
	CompletedChallenges []*challenge.Challenge `json:"completed_challenges,omitempty"`
	TotalPoints         int                    `json:"total_points"`
	Level               int                    `json:"level"`
	Warnings            []string               `json:"warnings,omitempty"`
}

type PointsSummary struct {
	TotalPoints      int        `json:"total_points"`
	CurrentLevel     int        `json:"current_level"`
	StreakDays       int        `json:"streak_days"`
	LastActivityDate *time.Time `json:"last_activity_date"`
}

// GamificationService turns activity writes into points, streaks, badges and
// challenge completions. All work for one user runs under that user's lock
// and lands in a single store commit.
type GamificationService struct {
	store      store.Store
	evaluator  *badgeeval.Evaluator
	loc        *time.Location
	maxRetries int
	locks      *userLocks
	publisher  EventPublisher
	now        func() time.Time
}

func NewGamificationService(st store.Store, loc *time.Location, maxRetries int) *GamificationService {
	if loc == nil {
		loc = time.UTC
	}
	return &GamificationService{
		store:      st,
		evaluator:  badgeeval.NewEvaluator(),
		loc:        loc,
		maxRetries: max(maxRetries, 1),
		locks:      newUserLocks(),
		now:        time.Now,
	}
}

func (s *GamificationService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

func (s *GamificationService) SetClock(now func() time.Time) {
	s.now = now
}

// Evaluator exposes the badge rules so callers can register new requirement
// types at startup.
func (s *GamificationService) Evaluator() *badgeeval.Evaluator {
	return s.evaluator
}

// unit is one attempt at a user's gamification work.
type unit struct {
	user      *user.User
	levels    []level.Level
	book      *pointsledger.Book
	commit    *store.Commit
	now       time.Time
	events    []*notification.Event
	newBadges []*badge.Badge
	completed []*challenge.Challenge
	warnings  []string
}

type lifetimeStats struct {
	activities store.Activities
}

func (l lifetimeStats) LifetimeTotals(ctx context.Context, userID uuid.UUID) (activity.Totals, error) {
	return l.activities.SumActivities(ctx, userID, time.Time{}, time.Time{})
}

func (s *GamificationService) run(ctx context.Context, userID uuid.UUID, op string, fn func(ctx context.Context) error) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = fn(ctx)
		if !errors.Is(err, store.ErrVersionConflict) {
			break
		}
		versionConflicts.Inc()
		log.Printf("GamificationService: %s for user %s hit a version conflict (attempt %d/%d)", op, userID, attempt, s.maxRetries)
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}
	}

	var verr *activity.ValidationError
	if err != nil && !errors.Is(err, ErrAlreadyScored) && !errors.Is(err, store.ErrNotFound) && !errors.As(err, &verr) {
		engineFailures.WithLabelValues(op).Inc()
	}
	return err
}

func (s *GamificationService) begin(ctx context.Context, userID uuid.UUID) (*unit, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	levels, err := s.store.ListLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load levels: %w", err)
	}

	working := u.Clone()
	now := s.now()
	return &unit{
		user:   working,
		levels: levels,
		book:   pointsledger.NewBook(working, levels, now),
		commit: &store.Commit{User: working},
		now:    now,
	}, nil
}

// dayTotals sums the day entry falls on. When stored is set it holds the
// metrics still persisted for entry, and entry's own metrics take their place.
func (s *GamificationService) dayTotals(ctx context.Context, userID uuid.UUID, entry *activity.Entry, stored *activity.Metrics) (*activity.Totals, error) {
	start := dates.StartOfDay(entry.Date, s.loc)
	t, err := s.store.SumActivities(ctx, userID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to sum day: %w", err)
	}
	if stored != nil {
		t.Metrics = t.Metrics.Replace(*stored, entry.Metrics)
	}
	return &t, nil
}

// evaluateBadges awards newly qualified badges into u. day may be nil.
func (s *GamificationService) evaluateBadges(ctx context.Context, u *unit, day *activity.Totals) error {
	defs, err := s.store.ListBadges(ctx)
	if err != nil {
		return fmt.Errorf("failed to load badges: %w", err)
	}

	cache := badgeeval.NewStatsCache(lifetimeStats{s.store}, u.user.ID)
	_, err = s.evaluator.Evaluate(ctx, defs, badgeeval.Subject{User: u.user, Day: day}, cache, func(b *badge.Badge) {
		if u.user.Badges == nil {
			u.user.Badges = make(map[uuid.UUID]time.Time)
		}
		u.user.Badges[b.ID] = u.now
		u.commit.Badges = append(u.commit.Badges, store.AwardedBadge{BadgeID: b.ID, EarnedAt: u.now})
		if b.PointsReward > 0 {
			ref := b.ID
			u.book.Post(ledger.SourceBadge, &ref, b.PointsReward)
		}
		u.newBadges = append(u.newBadges, b)
		u.events = append(u.events, &notification.Event{
			Kind:      notification.EventBadgeEarned,
			UserID:    u.user.ID,
			Title:     "Badge unlocked",
			Body:      fmt.Sprintf("You earned %s %s", b.Icon, b.Name),
			Data:      map[string]any{"badge_id": b.ID.String(), "points": b.PointsReward},
			CreatedAt: u.now,
		})
	})
	return err
}

type window struct {
	start, end int64
}

// checkChallenges completes open challenges whose target is met. pending is
// an entry whose points are changing in this unit; its delta is not yet in
// the store and is added to the windows it falls in. stored, when set, holds
// pending's persisted metrics, swapped for pending's own in those windows.
func (s *GamificationService) checkChallenges(ctx context.Context, u *unit, pending *activity.Entry, pendingPoints int, stored *activity.Metrics) error {
	open, err := s.store.ListChallenges(ctx, u.user.ID, store.ChallengeFilter{OpenOnly: true, EndingAfter: u.now})
	if err != nil {
		return fmt.Errorf("failed to list challenges: %w", err)
	}

	sums := make(map[window]activity.Totals)
	for _, c := range open {
		if c.StartDate.After(u.now) {
			continue
		}

		key := window{c.StartDate.UnixNano(), c.EndDate.UnixNano()}
		totals, ok := sums[key]
		if !ok {
			totals, err = s.store.SumActivities(ctx, u.user.ID, c.StartDate, c.EndDate)
			if err != nil {
				return fmt.Errorf("failed to sum challenge window: %w", err)
			}
			if pending != nil && !pending.Date.Before(c.StartDate) && pending.Date.Before(c.EndDate) {
				totals.Points += pendingPoints
				if stored != nil {
					totals.Metrics = totals.Metrics.Replace(*stored, pending.Metrics)
				}
			}
			sums[key] = totals
		}

		if !challengerules.Complete(c, totals.Value(c.Target.Type), u.now) {
			continue
		}

		u.commit.Challenges = append(u.commit.Challenges, c)
		if c.PointsReward > 0 {
			ref := c.ID
			u.book.Post(ledger.SourceChallenge, &ref, c.PointsReward)
		}
		u.completed = append(u.completed, c)
		u.events = append(u.events, &notification.Event{
			Kind:      notification.EventChallengeCompleted,
			UserID:    u.user.ID,
			Title:     "Challenge complete",
			Body:      fmt.Sprintf("You hit your %s %s target", c.Type, c.Target.Type),
			Data:      map[string]any{"challenge_id": c.ID.String(), "points": c.PointsReward},
			CreatedAt: u.now,
		})
	}
	return nil
}

// degrade records a failed best-effort step. The unit still commits what it
// has so far.
func (u *unit) degrade(step string, err error) {
	log.Printf("GamificationService: %s failed for user %s: %v", step, u.user.ID, err)
	u.warnings = append(u.warnings, step+" unavailable")
}

func (s *GamificationService) commit(ctx context.Context, u *unit) error {
	u.commit.Ledger = u.book.Entries()
	if err := s.store.Apply(ctx, u.commit); err != nil {
		return err
	}

	if from, to := u.book.LevelChange(); to > from {
		u.events = append(u.events, &notification.Event{
			Kind:      notification.EventLevelUp,
			UserID:    u.user.ID,
			Title:     "Level up",
			Body:      fmt.Sprintf("You reached level %d", to),
			Data:      map[string]any{"from": from, "to": to},
			CreatedAt: u.now,
		})
	}
	return nil
}

// settle records metrics and publishes events for a committed unit.
func (s *GamificationService) settle(u *unit) {
	for _, e := range u.commit.Ledger {
		switch {
		case e.Applied > 0:
			pointsApplied.WithLabelValues(string(e.Source), "credit").Add(float64(e.Applied))
		case e.Applied < 0:
			pointsApplied.WithLabelValues(string(e.Source), "debit").Add(float64(-e.Applied))
		}
	}
	for _, b := range u.newBadges {
		badgesAwarded.WithLabelValues(b.Name).Inc()
	}
	for _, c := range u.completed {
		challengesCompleted.WithLabelValues(string(c.Target.Type)).Inc()
	}

	if s.publisher == nil {
		return
	}
	for _, evt := range u.events {
		s.publisher.Publish(evt)
	}
}

// OnActivityWritten scores a freshly persisted entry: streak, points,
// milestone bonus, badges against the entry's day, then challenges.
func (s *GamificationService) OnActivityWritten(ctx context.Context, userID, activityID uuid.UUID) (*ActivityOutcome, error) {
	var out *ActivityOutcome
	err := s.run(ctx, userID, "activity_written", func(ctx context.Context) error {
		var err error
		out, err = s.scoreActivity(ctx, userID, activityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scoreActivity must run under the user's lock.
func (s *GamificationService) scoreActivity(ctx context.Context, userID, activityID uuid.UUID) (*ActivityOutcome, error) {
	entry, err := s.store.GetActivity(ctx, userID, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	if entry.Scored {
		return nil, ErrAlreadyScored
	}
	return s.score(ctx, userID, entry, nil)
}

// score runs first scoring for an unscored entry. When stored is set the
// entry's metrics differ from the persisted ones and are written with the
// commit.
func (s *GamificationService) score(ctx context.Context, userID uuid.UUID, entry *activity.Entry, stored *activity.Metrics) (*ActivityOutcome, error) {
	u, err := s.begin(ctx, userID)
	if err != nil {
		return nil, err
	}

	tr := streak.Advance(streak.State{Days: u.user.StreakDays, LastActivity: u.user.LastActivityDate}, entry.Date, s.loc)
	u.user.StreakDays = tr.Days
	u.user.LastActivityDate = tr.LastActivity

	breakdown := scoring.Explain(entry.Metrics, tr.Days)
	points := breakdown.Total + tr.MilestoneBonus

	ref := entry.ID
	u.book.Post(ledger.SourceActivity, &ref, breakdown.Total)
	if tr.MilestoneBonus > 0 {
		u.book.Post(ledger.SourceStreakMilestone, &ref, tr.MilestoneBonus)
		u.events = append(u.events, &notification.Event{
			Kind:      notification.EventStreakMilestone,
			UserID:    u.user.ID,
			Title:     "Streak milestone",
			Body:      fmt.Sprintf("%d days in a row! +%d bonus points", tr.Days, tr.MilestoneBonus),
			Data:      map[string]any{"streak_days": tr.Days, "milestones": tr.Milestones, "points": tr.MilestoneBonus},
			CreatedAt: u.now,
		})
	}
	u.commit.Activity = &store.ActivityPoints{ID: entry.ID, Points: points, FirstScore: true}
	if stored != nil {
		u.commit.Activity.Metrics = &entry.Metrics
		u.commit.Activity.EditedAt = u.now
	}

	if day, err := s.dayTotals(ctx, userID, entry, stored); err != nil {
		u.degrade("badges", err)
	} else if err := s.evaluateBadges(ctx, u, day); err != nil {
		u.degrade("badges", err)
	}

	if err := s.checkChallenges(ctx, u, entry, points, stored); err != nil {
		u.degrade("challenges", err)
	}

	if err := s.commit(ctx, u); err != nil {
		return nil, err
	}
	s.settle(u)

	entry.PointsEarned = points
	entry.Scored = true
	if stored != nil {
		entry.UpdatedAt = u.now
	}
	from, to := u.book.LevelChange()
	return &ActivityOutcome{
		Activity:            entry,
		PointsEarned:        points,
		Breakdown:           breakdown,
		StreakDays:          u.user.StreakDays,
		MilestoneBonus:      tr.MilestoneBonus,
		NewBadges:           u.newBadges,
		CompletedChallenges: u.completed,
		TotalPoints:         u.user.TotalPoints,
		Level:               u.user.CurrentLevel,
		LeveledUp:           to > from,
		Warnings:            u.warnings,
	}, nil
}

// OnActivityEdited applies req to the entry and rescores it. The new metrics
// land in the same commit as the points, so a failed run leaves the entry as
// it was. Points are recomputed with the user's current streak and the
// difference from the stored points is posted. An entry that was never
// scored is scored from scratch instead.
func (s *GamificationService) OnActivityEdited(ctx context.Context, userID, activityID uuid.UUID, req *activity.UpdateRequest) (*EditOutcome, error) {
	var out *EditOutcome
	err := s.run(ctx, userID, "activity_edited", func(ctx context.Context) error {
		entry, err := s.store.GetActivity(ctx, userID, activityID)
		if err != nil {
			return fmt.Errorf("failed to load activity: %w", err)
		}

		stored := entry.Metrics
		entry.Metrics, err = req.Apply(stored)
		if err != nil {
			return err
		}

		if !entry.Scored {
			scored, err := s.score(ctx, userID, entry, &stored)
			if err != nil {
				return err
			}
			out = &EditOutcome{
				Activity:            scored.Activity,
				NewPointsEarned:     scored.PointsEarned,
				Delta:               scored.PointsEarned,
				NewBadges:           scored.NewBadges,
				CompletedChallenges: scored.CompletedChallenges,
				TotalPoints:         scored.TotalPoints,
				Level:               scored.Level,
				Warnings:            scored.Warnings,
			}
			return nil
		}

		out, err = s.rescore(ctx, userID, entry, stored)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// rescore posts the points difference for a scored entry carrying edited
// metrics. stored holds the metrics still persisted.
func (s *GamificationService) rescore(ctx context.Context, userID uuid.UUID, entry *activity.Entry, stored activity.Metrics) (*EditOutcome, error) {
	u, err := s.begin(ctx, userID)
	if err != nil {
		return nil, err
	}

	newPoints := scoring.Compute(entry.Metrics, u.user.StreakDays)
	delta := newPoints - entry.PointsEarned

	ref := entry.ID
	u.book.Post(ledger.SourceActivityEdit, &ref, delta)
	u.commit.Activity = &store.ActivityPoints{ID: entry.ID, Points: newPoints, Metrics: &entry.Metrics, EditedAt: u.now}

	if day, err := s.dayTotals(ctx, userID, entry, &stored); err != nil {
		u.degrade("badges", err)
	} else if err := s.evaluateBadges(ctx, u, day); err != nil {
		u.degrade("badges", err)
	}

	if err := s.checkChallenges(ctx, u, entry, delta, &stored); err != nil {
		u.degrade("challenges", err)
	}

	if err := s.commit(ctx, u); err != nil {
		return nil, err
	}
	s.settle(u)

	entry.PointsEarned = newPoints
	entry.UpdatedAt = u.now
	return &EditOutcome{
		Activity:            entry,
		NewPointsEarned:     newPoints,
		Delta:               delta,
		NewBadges:           u.newBadges,
		CompletedChallenges: u.completed,
		TotalPoints:         u.user.TotalPoints,
		Level:               u.user.CurrentLevel,
		Warnings:            u.warnings,
	}, nil
}

// OnActivityDeleted removes the entry and debits its points in one commit.
// Badges and challenges already earned are kept. It returns the points
// actually removed after clamping.
func (s *GamificationService) OnActivityDeleted(ctx context.Context, userID, activityID uuid.UUID) (int, error) {
	var removed int
	err := s.run(ctx, userID, "activity_deleted", func(ctx context.Context) error {
		u, err := s.begin(ctx, userID)
		if err != nil {
			return err
		}

		entry, err := s.store.GetActivity(ctx, userID, activityID)
		if err != nil {
			return fmt.Errorf("failed to load activity: %w", err)
		}

		ref := entry.ID
		r := u.book.Post(ledger.SourceActivityDelete, &ref, -entry.PointsEarned)
		u.commit.DeleteActivity = &ref

		if err := s.commit(ctx, u); err != nil {
			return err
		}
		s.settle(u)
		removed = -r.Applied
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// CheckChallenges completes any open challenge whose target the user has
// already met. Nothing is written when none completes.
func (s *GamificationService) CheckChallenges(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error) {
	var completed []*challenge.Challenge
	err := s.run(ctx, userID, "check_challenges", func(ctx context.Context) error {
		u, err := s.begin(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.checkChallenges(ctx, u, nil, 0, nil); err != nil {
			return err
		}
		if len(u.completed) == 0 {
			completed = nil
			return nil
		}

		// A challenge reward can cross a points badge threshold.
		if err := s.evaluateBadges(ctx, u, nil); err != nil {
			u.degrade("badges", err)
		}

		if err := s.commit(ctx, u); err != nil {
			return err
		}
		s.settle(u)
		completed = u.completed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// withUserLock runs fn under the same per-user lock the engine uses.
func (s *GamificationService) withUserLock(userID uuid.UUID, fn func() error) error {
	unlock := s.locks.lock(userID)
	defer unlock()
	return fn()
}

func (s *GamificationService) Points(ctx context.Context, userID uuid.UUID) (*PointsSummary, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PointsSummary{
		TotalPoints:      u.TotalPoints,
		CurrentLevel:     u.CurrentLevel,
		StreakDays:       u.StreakDays,
		LastActivityDate: u.LastActivityDate,
	}, nil
}

func (s *GamificationService) LevelProgress(ctx context.Context, userID uuid.UUID) (*level.Progress, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	levels, err := s.store.ListLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load levels: %w", err)
	}
	p := pointsledger.Progress(u.TotalPoints, u.CurrentLevel, levels)
	return &p, nil
}

func (s *GamificationService) EarnedBadges(ctx context.Context, userID uuid.UUID) ([]*badge.Earned, error) {
	return s.store.ListUserBadges(ctx, userID)
}

// AvailableBadges lists the whole catalogue with the user's earned flags.
func (s *GamificationService) AvailableBadges(ctx context.Context, userID uuid.UUID) ([]*badge.Status, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	defs, err := s.store.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}

	out := make([]*badge.Status, 0, len(defs))
	for _, b := range defs {
		st := &badge.Status{Badge: b}
		if at, ok := u.Badges[b.ID]; ok {
			earnedAt := at
			st.Earned = true
			st.EarnedAt = &earnedAt
		}
		out = append(out, st)
	}
	return out, nil
}

// Ledger returns the newest entries first. limit defaults to
// DefaultLedgerLimit and is capped at MaxLedgerLimit.
func (s *GamificationService) Ledger(ctx context.Context, userID uuid.UUID, limit int) ([]*ledger.Entry, error) {
	switch {
	case limit <= 0:
		limit = DefaultLedgerLimit
	case limit > MaxLedgerLimit:
		limit = MaxLedgerLimit
	}
	entries, err := s.store.ListLedger(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*ledger.Entry{}
	}
	return entries, nil
}
