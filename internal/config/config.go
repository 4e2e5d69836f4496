package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port    string
	BaseURL string

	// Scheduling service
	RosterdBaseURL   string
	RosterdRateLimit float64 // requests per second
	RosterdBurst     int

	// Refresh
	RefreshSchedule  string // cron expression
	RefreshOnStartup bool

	// Views
	CrewPageSize   int
	FlightPageSize int
	DutyChartLimit int // entries shown on the duty-hours chart

	// Disruption assistant
	ChatProvider string // "backend", "openai" or "google"
	ChatAPIKey   string
	ChatModel    string

	// Frontend
	StaticDir string

	LogLevel string
}

func Load() *Config {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		RosterdBaseURL:   getEnv("ROSTERD_BASE_URL", "http://localhost:8000"),
		RosterdRateLimit: getEnvFloat("ROSTERD_RATE_LIMIT", 10),
		RosterdBurst:     getEnvInt("ROSTERD_BURST", 20),
		RefreshSchedule:  getEnv("REFRESH_SCHEDULE", "*/15 * * * *"), // every 15 minutes
		RefreshOnStartup: getEnvBool("REFRESH_ON_STARTUP", true),
		CrewPageSize:     getEnvInt("CREW_PAGE_SIZE", 100),
		FlightPageSize:   getEnvInt("FLIGHT_PAGE_SIZE", 50),
		DutyChartLimit:   getEnvInt("DUTY_CHART_LIMIT", 10),
		ChatProvider:     getEnv("CHAT_PROVIDER", "backend"),
		ChatAPIKey:       getEnv("CHAT_API_KEY", ""),
		ChatModel:        getEnv("CHAT_MODEL", ""),
		StaticDir:        getEnv("STATIC_DIR", "./frontend/dist"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	val = strings.ToLower(val)
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}
