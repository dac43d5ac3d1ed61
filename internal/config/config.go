package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// School backend (REST API owning persistence and business rules)
	SchoolAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache (exchange rate, school structure)
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// JWT validation. Tokens are issued by the school backend.
	JWTSecret string

	// Student list
	ListMode        string // remote | local
	SearchDebounce  time.Duration
	DefaultPageSize int

	// Preferences store. Empty DSN keeps preferences in memory.
	PreferencesDSN string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SchoolAPIURL: strings.TrimRight(getEnv("SCHOOL_API_URL", "http://localhost:5000/api"), "/"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		JWTSecret: getEnv("JWT_SECRET", "school-bfa-dev-secret-change-me"),

		ListMode:        getEnvEnum("STUDENT_LIST_MODE", "remote", "remote", "local"),
		SearchDebounce:  getEnvDuration("SEARCH_DEBOUNCE", 500*time.Millisecond),
		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 20),

		PreferencesDSN: getEnv("PREFERENCES_DSN", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvEnum returns the env value when it is one of allowed, else fallback.
func getEnvEnum(key, fallback string, allowed ...string) string {
	v := strings.ToLower(getEnv(key, fallback))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}
