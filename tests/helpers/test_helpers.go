package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	badgeeval "fitQuestAPI/internal/badge"
	pointsledger "fitQuestAPI/internal/ledger"
	"fitQuestAPI/internal/realtime"
	"fitQuestAPI/internal/store"
	"fitQuestAPI/middleware"
	"fitQuestAPI/routes"
	"fitQuestAPI/services"
)

const TestJWTSecret = "test-secret-key-for-testing-only"

// SetupTestDB connects to TEST_DATABASE_URL and skips the test when it is
// not set. Tables are migrated and emptied.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}
	if err := store.NewPostgres(pool).Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	CleanupTestDB(t, pool)
	t.Cleanup(pool.Close)
	return pool
}

// CleanupTestDB empties every table the store owns.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, `TRUNCATE point_ledger, device_tokens, user_badges, challenges, activities, badges, levels, users CASCADE`)
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
}

// GenerateTestJWT signs an HS256 token for subject with TestJWTSecret.
func GenerateTestJWT(subject string) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"iss": "https://auth.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(TestJWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// TestServer is the full HTTP stack over a chosen store with a fixed clock.
type TestServer struct {
	*httptest.Server
	Store  store.Store
	Engine       *services.GamificationService
	Leaderboards *services.LeaderboardService
	Hub          *realtime.Hub
	Now          time.Time
}

// NewTestServer seeds levels and the badge catalogue and serves the API with
// local token verification. Events go to a dispatcher with no push provider.
func NewTestServer(t *testing.T, st store.Store, now time.Time) *TestServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	_, err := st.SeedLevels(ctx, pointsledger.DefaultLevels)
	require.NoError(t, err)
	_, err = st.SeedBadges(ctx, badgeeval.Catalogue())
	require.NoError(t, err)

	clock := func() time.Time { return now }

	hub := realtime.NewHub()
	go hub.Run(ctx)

	dispatcher := services.NewNotificationDispatcher(st, 1)
	dispatcher.SetBroadcaster(hub)
	t.Cleanup(dispatcher.Stop)

	engine := services.NewGamificationService(st, time.UTC, 10)
	engine.SetClock(clock)
	engine.SetPublisher(dispatcher)

	leaderboards := services.NewLeaderboardService(st, time.UTC)
	leaderboards.SetClock(clock)
	leaderboards.SetPublisher(dispatcher)

	users := services.NewUserService(st, leaderboards)
	activities := services.NewActivityService(st, engine, time.UTC)
	activities.SetClock(clock)
	challenges := services.NewChallengeService(st, engine, time.UTC)
	challenges.SetClock(clock)

	handler := routes.Setup(routes.Deps{
		Users:        users,
		Activities:   activities,
		Engine:       engine,
		Challenges:   challenges,
		Leaderboards: leaderboards,
		Hub:          hub,
		Verifier:     middleware.NewHMACVerifier(TestJWTSecret),
		Ping:         st.Ping,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &TestServer{Server: srv, Store: st, Engine: engine, Leaderboards: leaderboards, Hub: hub, Now: now}
}

// Do sends a JSON request as subject (no auth header when subject is empty)
// and decodes the response into out when out is non-nil.
func (s *TestServer) Do(t *testing.T, method, path, subject string, body interface{}, out interface{}) int {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, s.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		token, err := GenerateTestJWT(subject)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
