// Package routes wires handlers and middleware into the HTTP surface.
package routes

import (
	"context"
	"net/http"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"fitQuestAPI/handlers"
	"fitQuestAPI/internal/realtime"
	"fitQuestAPI/middleware"
	"fitQuestAPI/services"
)

type Deps struct {
	Users        *services.UserService
	Activities   *services.ActivityService
	Engine       *services.GamificationService
	Challenges   *services.ChallengeService
	Leaderboards *services.LeaderboardService
	Hub          *realtime.Hub

	Verifier middleware.TokenVerifier
	Visitors middleware.VisitorStore

	// Ping reports storage health for /health.
	Ping func(ctx context.Context) error

	Metrics         http.Handler
	MetricsUser     string
	MetricsPassword string
}

// Setup returns the root handler: CORS, then monitoring and rate limiting on
// every route, then auth on everything under /api/v1.
func Setup(d Deps) http.Handler {
	userHandler := handlers.NewUserHandler(d.Users)
	activityHandler := handlers.NewActivityHandler(d.Activities, d.Users)
	gamificationHandler := handlers.NewGamificationHandler(d.Engine, d.Users)
	challengeHandler := handlers.NewChallengeHandler(d.Challenges, d.Users)
	leaderboardHandler := handlers.NewLeaderboardHandler(d.Leaderboards, d.Users)

	r := mux.NewRouter()
	r.Use(middleware.MonitorMiddleware)
	if d.Visitors != nil {
		r.Use(middleware.RateLimitMiddleware(d.Visitors))
	}

	if d.Metrics != nil {
		r.Handle("/metrics", middleware.BasicAuthMiddleware(d.MetricsUser, d.MetricsPassword)(d.Metrics)).Methods("GET")
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if d.Ping != nil {
			if err := d.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "fitQuest-api"}`))
	}).Methods("GET")

	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.AuthMiddleware(d.Verifier))

	protected.HandleFunc("/user", userHandler.Register).Methods("POST")
	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/devices", userHandler.RegisterDevice).Methods("POST")

	protected.HandleFunc("/activities", activityHandler.Create).Methods("POST")
	protected.HandleFunc("/activities", activityHandler.List).Methods("GET")
	protected.HandleFunc("/activities/today", activityHandler.Today).Methods("GET")
	protected.HandleFunc("/activities/stats", activityHandler.Stats).Methods("GET")
	protected.HandleFunc("/activities/{id}", activityHandler.Get).Methods("GET")
	protected.HandleFunc("/activities/{id}", activityHandler.Update).Methods("PUT")
	protected.HandleFunc("/activities/{id}", activityHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/gamification/points", gamificationHandler.GetPoints).Methods("GET")
	protected.HandleFunc("/gamification/badges", gamificationHandler.GetBadges).Methods("GET")
	protected.HandleFunc("/gamification/available-badges", gamificationHandler.GetAvailableBadges).Methods("GET")
	protected.HandleFunc("/gamification/level", gamificationHandler.GetLevel).Methods("GET")
	protected.HandleFunc("/gamification/ledger", gamificationHandler.GetLedger).Methods("GET")

	protected.HandleFunc("/challenges/active", challengeHandler.GetActive).Methods("GET")
	protected.HandleFunc("/challenges/create-default", challengeHandler.CreateDefault).Methods("POST")
	protected.HandleFunc("/challenges/check", challengeHandler.Check).Methods("POST")

	protected.HandleFunc("/leaderboard/overall", leaderboardHandler.GetOverall).Methods("GET")
	protected.HandleFunc("/leaderboard/weekly", leaderboardHandler.GetWeekly).Methods("GET")
	protected.HandleFunc("/leaderboard/monthly", leaderboardHandler.GetMonthly).Methods("GET")
	protected.HandleFunc("/leaderboard/my-rank", leaderboardHandler.GetMyRank).Methods("GET")

	if d.Hub != nil {
		protected.HandleFunc("/ws", handlers.NewWSHandler(d.Hub, d.Users).Connect).Methods("GET")
	}

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)
	return corsHandler(r)
}
