package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Worker
	WorkerCount int

	// Dashboard
	WeekStartsOn   time.Weekday
	Location       *time.Location
	LabelMaxLength int
	ChartCacheTTL  time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		Env:            getEnvOrDefault("ENV", "development"),
		DatabaseURL:    mustGetEnv("DATABASE_URL"),
		MigrationsDir:  getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:       mustGetEnv("REDIS_URL"),
		JWTSecret:      mustGetEnv("JWT_SECRET"),
		WorkerCount:    getEnvAsIntOrDefault("WORKER_COUNT", 2),
		WeekStartsOn:   weekdayOrDefault(getEnvAsIntOrDefault("WEEK_STARTS_ON", 0)),
		Location:       locationOrUTC(getEnvOrDefault("TIMEZONE", "UTC")),
		LabelMaxLength: getEnvAsIntOrDefault("LABEL_MAX_LENGTH", 18),
		ChartCacheTTL:  time.Duration(getEnvAsIntOrDefault("CHART_CACHE_TTL_SECONDS", 60)) * time.Second,
		FrontendURL:    getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.LabelMaxLength < 1 {
		cfg.LabelMaxLength = 18
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// weekdayOrDefault maps 0-6 to a weekday; anything else is Sunday.
func weekdayOrDefault(n int) time.Weekday {
	if n < 0 || n > 6 {
		return time.Sunday
	}
	return time.Weekday(n)
}

func locationOrUTC(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
