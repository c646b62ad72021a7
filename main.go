package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fitQuestAPI/handlers"
	badgeeval "fitQuestAPI/internal/badge"
	"fitQuestAPI/internal/config"
	pointsledger "fitQuestAPI/internal/ledger"
	"fitQuestAPI/internal/notification"
	"fitQuestAPI/internal/realtime"
	"fitQuestAPI/internal/store"
	"fitQuestAPI/internal/workers"
	"fitQuestAPI/middleware"
	"fitQuestAPI/routes"
	"fitQuestAPI/services"
)

const visitorIdleTimeout = 3 * time.Minute

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Println("Using in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, nil, err
	}
	log.Println("Successfully connected to Postgres")

	pg := store.NewPostgres(dbPool)
	if err := pg.Migrate(ctx); err != nil {
		dbPool.Close()
		return nil, nil, err
	}

	return pg, func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}, nil
}

func newVerifier(cfg *config.Config) middleware.TokenVerifier {
	if cfg.AuthMode == config.AuthLocal {
		log.Println("Auth: verifying locally signed HS256 tokens")
		return middleware.NewHMACVerifier(cfg.JWTSecret)
	}
	log.Println("Clerk initialized successfully")
	return middleware.NewClerkVerifier(cfg.ClerkSecretKey)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}
	handlers.SetRequestTimeout(cfg.RequestTimeout)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	st, closeStore, err := openStore(startupCtx, cfg)
	if err != nil {
		cancel()
		log.Fatal("Failed to open store:", err)
	}
	defer closeStore()

	if n, err := st.SeedLevels(startupCtx, pointsledger.DefaultLevels); err != nil {
		log.Fatal("Failed to seed levels:", err)
	} else if n > 0 {
		log.Printf("Seeded %d levels", n)
	}
	if n, err := st.SeedBadges(startupCtx, badgeeval.Catalogue()); err != nil {
		log.Fatal("Failed to seed badges:", err)
	} else if n > 0 {
		log.Printf("Seeded %d badges", n)
	}
	cancel()

	services.RegisterMetrics(prometheus.DefaultRegisterer)
	middleware.InitPrometheus(prometheus.DefaultRegisterer)

	hub := realtime.NewHub()
	go hub.Run(rootCtx)

	dispatcher := services.NewNotificationDispatcher(st, cfg.DispatcherWorkers)
	dispatcher.SetBroadcaster(hub)
	fcmService, err := notification.NewFCMService(rootCtx, cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		dispatcher.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	engine := services.NewGamificationService(st, cfg.Location, cfg.EngineMaxRetries)
	engine.SetPublisher(dispatcher)
	leaderboardService := services.NewLeaderboardService(st, cfg.Location)
	leaderboardService.SetPublisher(dispatcher)
	userService := services.NewUserService(st, leaderboardService)
	activityService := services.NewActivityService(st, engine, cfg.Location)
	challengeService := services.NewChallengeService(st, engine, cfg.Location)

	visitors := middleware.NewMemoryVisitors(cfg.RateLimitRPS, cfg.RateLimitBurst)

	go workers.Every(rootCtx, "unscored-sweep", cfg.UnscoredSweepInterval, func(ctx context.Context) error {
		_, err := activityService.ScoreUnscored(ctx)
		return err
	})
	go workers.Every(rootCtx, "leaderboard-broadcast", cfg.LeaderboardBroadcastInterval, leaderboardService.Snapshot)
	go workers.Every(rootCtx, "visitor-cleanup", time.Minute, func(ctx context.Context) error {
		if n := visitors.Cleanup(visitorIdleTimeout); n > 0 {
			log.Printf("Rate limiter: forgot %d idle visitors", n)
		}
		return nil
	})

	handler := routes.Setup(routes.Deps{
		Users:           userService,
		Activities:      activityService,
		Engine:          engine,
		Challenges:      challengeService,
		Leaderboards:    leaderboardService,
		Hub:             hub,
		Verifier:        newVerifier(cfg),
		Visitors:        visitors,
		Ping:            st.Ping,
		Metrics:         promhttp.Handler(),
		MetricsUser:     cfg.MetricsUser,
		MetricsPassword: cfg.MetricsPassword,
	})

	port := ":" + cfg.Port
	server := http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	dispatcher.Stop()

	log.Println("Server shutdown complete")
}
