package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitQuestAPI/internal/types/activity"
	"fitQuestAPI/internal/types/badge"
	"fitQuestAPI/internal/types/challenge"
	"fitQuestAPI/internal/types/leaderboard"
	"fitQuestAPI/internal/types/ledger"
	"fitQuestAPI/internal/types/level"
	"fitQuestAPI/internal/types/notification"
	"fitQuestAPI/internal/types/user"
)

//go:embed schema.sql
var schema string

type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates any missing tables and indexes.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const userColumns = `id, clerk_id, username, email, total_points, current_level, streak_days,
	last_activity_date, version, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.ClerkID, &u.Username, &u.Email, &u.TotalPoints, &u.CurrentLevel,
		&u.StreakDays, &u.LastActivityDate, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Postgres) CreateUser(ctx context.Context, u *user.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CurrentLevel < 1 {
		u.CurrentLevel = 1
	}
	u.Badges = map[uuid.UUID]time.Time{}

	query := `
		INSERT INTO users (id, clerk_id, username, email, total_points, current_level, streak_days, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		RETURNING version, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, u.ID, u.ClerkID, u.Username, u.Email, u.TotalPoints, u.CurrentLevel, u.StreakDays).
		Scan(&u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Postgres) loadBadges(ctx context.Context, u *user.User) error {
	rows, err := s.db.Query(ctx, `SELECT badge_id, earned_at FROM user_badges WHERE user_id = $1`, u.ID)
	if err != nil {
		return fmt.Errorf("failed to load user badges: %w", err)
	}
	defer rows.Close()

	u.Badges = make(map[uuid.UUID]time.Time)
	for rows.Next() {
		var id uuid.UUID
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return fmt.Errorf("failed to scan user badge: %w", err)
		}
		u.Badges[id] = at
	}
	return rows.Err()
}

func (s *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadBadges(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Postgres) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE clerk_id = $1`, clerkID))
	if err != nil {
		return nil, err
	}
	if err := s.loadBadges(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

const badgeColumns = `b.id, b.name, b.description, b.icon, b.category, b.requirement_type,
	b.requirement_value, b.points_reward, b.sort_order`

func scanBadge(row pgx.Row, extra ...any) (*badge.Badge, error) {
	b := &badge.Badge{}
	dest := []any{&b.ID, &b.Name, &b.Description, &b.Icon, &b.Category, &b.Requirement.Type,
		&b.Requirement.Value, &b.PointsReward, &b.SortOrder}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Postgres) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*badge.Earned, error) {
	query := `
		SELECT ` + badgeColumns + `, ub.earned_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.earned_at, b.sort_order
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	defer rows.Close()

	var out []*badge.Earned
	for rows.Next() {
		var at time.Time
		b, err := scanBadge(rows, &at)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		out = append(out, &badge.Earned{Badge: b, EarnedAt: at})
	}
	return out, rows.Err()
}

const activityColumns = `id, user_id, date, steps, distance, exercise_time, calories,
	points_earned, scored, created_at, updated_at`

func scanActivity(row pgx.Row) (*activity.Entry, error) {
	e := &activity.Entry{}
	err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Steps, &e.Distance, &e.ExerciseTime, &e.Calories,
		&e.PointsEarned, &e.Scored, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Postgres) CreateActivity(ctx context.Context, e *activity.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	query := `
		INSERT INTO activities (id, user_id, date, steps, distance, exercise_time, calories,
			points_earned, scored, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.Exec(ctx, query, e.ID, e.UserID, e.Date, e.Steps, e.Distance, e.ExerciseTime, e.Calories,
		e.PointsEarned, e.Scored, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (s *Postgres) GetActivity(ctx context.Context, userID, id uuid.UUID) (*activity.Entry, error) {
	e, err := scanActivity(s.db.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return e, nil
}

// nullableTime maps an open bound to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Postgres) ListActivities(ctx context.Context, userID uuid.UUID, q activity.Query) ([]*activity.Entry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR date >= $2)
		  AND ($3::timestamptz IS NULL OR date < $3)
		ORDER BY date DESC, created_at DESC
		LIMIT NULLIF($4, 0)
	`
	rows, err := s.db.Query(ctx, query, userID, nullableTime(q.From), nullableTime(q.To), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var out []*activity.Entry
	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Postgres) SumActivities(ctx context.Context, userID uuid.UUID, from, to time.Time) (activity.Totals, error) {
	query := `
		SELECT COALESCE(SUM(steps), 0), COALESCE(SUM(distance), 0), COALESCE(SUM(exercise_time), 0),
		       COALESCE(SUM(calories), 0), COALESCE(SUM(points_earned), 0), COUNT(*)
		FROM activities
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR date >= $2)
		  AND ($3::timestamptz IS NULL OR date < $3)
	`
	var t activity.Totals
	err := s.db.QueryRow(ctx, query, userID, nullableTime(from), nullableTime(to)).
		Scan(&t.Steps, &t.Distance, &t.ExerciseTime, &t.Calories, &t.Points, &t.Count)
	if err != nil {
		return activity.Totals{}, fmt.Errorf("failed to sum activities: %w", err)
	}
	return t, nil
}

func (s *Postgres) ListUnscoredActivities(ctx context.Context, createdBefore time.Time, limit int) ([]*activity.Entry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE scored = FALSE AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unscored activities: %w", err)
	}
	defer rows.Close()

	var out []*activity.Entry
	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func collectRows(rows pgx.Rows) ([]*leaderboard.Row, error) {
	defer rows.Close()

	var out []*leaderboard.Row
	for rows.Next() {
		r := &leaderboard.Row{}
		if err := rows.Scan(&r.UserID, &r.Username, &r.Level, &r.Value, &r.MemberSince); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres) RankUsers(ctx context.Context, by leaderboard.Category, limit int) ([]*leaderboard.Row, error) {
	column := "total_points"
	if by == leaderboard.CategoryStreak {
		column = "streak_days"
	}
	query := fmt.Sprintf(`
		SELECT id, username, current_level, %[1]s::double precision, created_at
		FROM users
		ORDER BY %[1]s DESC, created_at ASC, id ASC
		LIMIT $1
	`, column)

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank users: %w", err)
	}
	return collectRows(rows)
}

var metricColumns = map[activity.Metric]string{
	activity.MetricSteps:        "steps",
	activity.MetricDistance:     "distance",
	activity.MetricExerciseTime: "exercise_time",
	activity.MetricCalories:     "calories",
	activity.MetricPoints:       "points_earned",
}

func (s *Postgres) RankActivityTotals(ctx context.Context, metric activity.Metric, since time.Time, limit int) ([]*leaderboard.Row, error) {
	column, ok := metricColumns[metric]
	if !ok {
		return nil, fmt.Errorf("unsupported leaderboard metric %q", metric)
	}
	query := fmt.Sprintf(`
		SELECT u.id, u.username, u.current_level, COALESCE(SUM(a.%s), 0)::double precision AS value, u.created_at
		FROM activities a
		JOIN users u ON u.id = a.user_id
		WHERE a.date >= $1
		GROUP BY u.id
		ORDER BY value DESC, u.created_at ASC, u.id ASC
		LIMIT $2
	`, column)

	rows, err := s.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank activity totals: %w", err)
	}
	return collectRows(rows)
}

func (s *Postgres) ListBadges(ctx context.Context) ([]*badge.Badge, error) {
	rows, err := s.db.Query(ctx, `SELECT `+badgeColumns+` FROM badges b ORDER BY b.sort_order, b.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	var out []*badge.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Postgres) SeedBadges(ctx context.Context, defs []*badge.Badge) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO badges (id, name, description, icon, category, requirement_type, requirement_value, points_reward, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO NOTHING
	`
	added := 0
	for _, d := range defs {
		id := d.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		tag, err := tx.Exec(ctx, query, id, d.Name, d.Description, d.Icon, d.Category, d.Requirement.Type,
			d.Requirement.Value, d.PointsReward, d.SortOrder)
		if err != nil {
			return 0, fmt.Errorf("failed to seed badge %q: %w", d.Name, err)
		}
		added += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit badge seed: %w", err)
	}
	return added, nil
}

func (s *Postgres) ListLevels(ctx context.Context) ([]level.Level, error) {
	rows, err := s.db.Query(ctx, `SELECT level_number, title, min_points, color FROM levels ORDER BY min_points`)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	defer rows.Close()

	var out []level.Level
	for rows.Next() {
		var l level.Level
		if err := rows.Scan(&l.LevelNumber, &l.Title, &l.MinPoints, &l.Color); err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Postgres) SeedLevels(ctx context.Context, levels []level.Level) (int, error) {
	batch := &pgx.Batch{}
	for _, l := range levels {
		batch.Queue(`
			INSERT INTO levels (level_number, title, min_points, color)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (level_number) DO NOTHING
		`, l.LevelNumber, l.Title, l.MinPoints, l.Color)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	added := 0
	for range levels {
		tag, err := br.Exec()
		if err != nil {
			return 0, fmt.Errorf("failed to seed level: %w", err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

const challengeColumns = `id, user_id, type, target_type, target_value, start_date, end_date,
	completed, completed_date, points_reward, created_at`

func (s *Postgres) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `
		INSERT INTO challenges (` + challengeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.Exec(ctx, query, c.ID, c.UserID, c.Type, c.Target.Type, c.Target.Value, c.StartDate, c.EndDate,
		c.Completed, c.CompletedDate, c.PointsReward, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (s *Postgres) ListChallenges(ctx context.Context, userID uuid.UUID, f ChallengeFilter) ([]*challenge.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE user_id = $1
		  AND (NOT $2 OR completed = FALSE)
		  AND ($3::timestamptz IS NULL OR end_date >= $3)
		  AND ($4::timestamptz IS NULL OR start_date >= $4)
		  AND ($5::timestamptz IS NULL OR start_date < $5)
		ORDER BY start_date DESC, created_at ASC
	`
	rows, err := s.db.Query(ctx, query, userID, f.OpenOnly, nullableTime(f.EndingAfter),
		nullableTime(f.StartingFrom), nullableTime(f.StartingBefore))
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var out []*challenge.Challenge
	for rows.Next() {
		c := &challenge.Challenge{}
		err := rows.Scan(&c.ID, &c.UserID, &c.Type, &c.Target.Type, &c.Target.Value, &c.StartDate, &c.EndDate,
			&c.Completed, &c.CompletedDate, &c.PointsReward, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) ListLedger(ctx context.Context, userID uuid.UUID, limit int) ([]*ledger.Entry, error) {
	query := `
		SELECT id, user_id, source, reference_id, requested, applied, balance_after, created_at
		FROM point_ledger
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT NULLIF($2, 0)
	`
	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Entry
	for rows.Next() {
		e := &ledger.Entry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.Source, &e.ReferenceID, &e.Requested, &e.Applied, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Postgres) RegisterDevice(ctx context.Context, userID uuid.UUID, token notification.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (token, user_id, platform, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform
	`
	if _, err := s.db.Exec(ctx, query, token.Token, userID, token.Platform, token.CreatedAt); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *Postgres) ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform, created_at FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var out []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Postgres) Apply(ctx context.Context, c *Commit) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	u := c.User
	var version int64
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET total_points = $3, current_level = $4, streak_days = $5, last_activity_date = $6,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version
	`, u.ID, u.Version, u.TotalPoints, u.CurrentLevel, u.StreakDays, u.LastActivityDate).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to update user totals: %w", err)
	}

	if a := c.Activity; a != nil {
		query := `UPDATE activities SET points_earned = $3, scored = TRUE`
		args := []any{a.ID, u.ID, a.Points}
		if m := a.Metrics; m != nil {
			query += `, steps = $4, distance = $5, exercise_time = $6, calories = $7, updated_at = $8`
			args = append(args, m.Steps, m.Distance, m.ExerciseTime, m.Calories, a.EditedAt)
		}
		query += ` WHERE id = $1 AND user_id = $2`
		if a.FirstScore {
			query += ` AND scored = FALSE`
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update activity points: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
	}

	if c.DeleteActivity != nil {
		tag, err := tx.Exec(ctx, `DELETE FROM activities WHERE id = $1 AND user_id = $2`, *c.DeleteActivity, u.ID)
		if err != nil {
			return fmt.Errorf("failed to delete activity: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}

	for _, b := range c.Badges {
		tag, err := tx.Exec(ctx, `
			INSERT INTO user_badges (user_id, badge_id, earned_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, badge_id) DO NOTHING
		`, u.ID, b.BadgeID, b.EarnedAt)
		if err != nil {
			return fmt.Errorf("failed to award badge: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
	}

	for _, ch := range c.Challenges {
		tag, err := tx.Exec(ctx, `
			UPDATE challenges SET completed = TRUE, completed_date = $3
			WHERE id = $1 AND user_id = $2 AND completed = FALSE
		`, ch.ID, u.ID, ch.CompletedDate)
		if err != nil {
			return fmt.Errorf("failed to complete challenge: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
	}

	if len(c.Ledger) > 0 {
		rows := make([][]any, 0, len(c.Ledger))
		for _, e := range c.Ledger {
			rows = append(rows, []any{e.ID, e.UserID, string(e.Source), e.ReferenceID, e.Requested, e.Applied, e.BalanceAfter, e.CreatedAt})
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"point_ledger"},
			[]string{"id", "user_id", "source", "reference_id", "requested", "applied", "balance_after", "created_at"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to write ledger: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.Version = version
	return nil
}
