package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	AuthClerk = "clerk"
	AuthLocal = "local"
)

type Config struct {
	Port        string
	DatabaseURL string
	StoreDriver string

	AuthMode       string
	ClerkSecretKey string
	JWTSecret      string

	Location *time.Location

	RateLimitRPS   float64
	RateLimitBurst int

	MetricsUser     string
	MetricsPassword string

	FirebaseCredentialsFile string

	EngineMaxRetries  int
	DispatcherWorkers int
	RequestTimeout    time.Duration

	LeaderboardBroadcastInterval time.Duration
	UnscoredSweepInterval        time.Duration
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                         getEnv("PORT", "3333"),
		DatabaseURL:                  getEnv("DATABASE_URL", ""),
		AuthMode:                     getEnv("AUTH_MODE", AuthClerk),
		ClerkSecretKey:               getEnv("CLERK_SECRET_KEY", ""),
		JWTSecret:                    getEnv("JWT_SECRET", ""),
		RateLimitRPS:                 getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:               getEnvInt("RATE_LIMIT_BURST", 20),
		MetricsUser:                  getEnv("METRICS_USER", ""),
		MetricsPassword:              getEnv("METRICS_PASSWORD", ""),
		FirebaseCredentialsFile:      getEnv("FIREBASE_CREDENTIALS_FILE", "./serviceAccountKey.json"),
		EngineMaxRetries:             getEnvInt("ENGINE_MAX_RETRIES", 5),
		DispatcherWorkers:            getEnvInt("DISPATCHER_WORKERS", 3),
		RequestTimeout:               getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
		LeaderboardBroadcastInterval: getEnvDuration("LEADERBOARD_BROADCAST_INTERVAL", 30*time.Second),
		UnscoredSweepInterval:        getEnvDuration("UNSCORED_SWEEP_INTERVAL", time.Minute),
	}

	defaultDriver := StoreMemory
	if cfg.DatabaseURL != "" {
		defaultDriver = StorePostgres
	}
	cfg.StoreDriver = getEnv("STORE_DRIVER", defaultDriver)

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.AuthMode {
	case AuthClerk:
		if c.ClerkSecretKey == "" {
			return fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
		}
	case AuthLocal:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=local")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.EngineMaxRetries < 1 {
		c.EngineMaxRetries = 1
	}
	if c.DispatcherWorkers < 1 {
		c.DispatcherWorkers = 1
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Config: invalid integer for %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Config: invalid number for %s=%q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Config: invalid duration for %s=%q, using %s", key, value, defaultValue)
	}
	return defaultValue
}
