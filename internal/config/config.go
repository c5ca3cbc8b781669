// Package config handles loading application configuration from environment variables.
// All settings have sensible defaults for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application settings loaded from environment variables.
type Config struct {
	Port         string
	DatabasePath string
	AppSecret    string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string

	// Process-wide default AI provider credentials. A user's own key,
	// stored in their settings, takes precedence over these.
	PerplexityAPIKey string
	OpenAIAPIKey     string
	GeminiAPIKey     string

	TokenDuration            time.Duration
	GenerationLimitPerHour   int
	SearchRateLimitPerMinute int
	FreePlanPlaylistLimit    int

	StripeSecretKey      string
	StripeWebhookSecret  string
	StripePremiumPriceID string
	StripeProPriceID     string

	FrontendURL        string
	ShareBaseURL       string
	CORSAllowedOrigins []string
	TrustedProxies     []string

	SentryDSN         string
	SentryEnvironment string
}

// Load reads configuration from environment variables, using defaults where not set.
func Load() *Config {
	frontendURL := getEnv("FRONTEND_URL", "http://localhost:5173")
	return &Config{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./geraai.db"),
		AppSecret:    getEnv("APP_SECRET", "change-me-in-production"), // #nosec G101 -- intentional dev default

		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyRedirectURI:  getEnv("SPOTIFY_REDIRECT_URI", "http://localhost:8080/api/auth/spotify/callback"),

		PerplexityAPIKey: getEnv("PERPLEXITY_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),

		TokenDuration:            getDurationEnv("TOKEN_DURATION", 7*24*time.Hour),
		GenerationLimitPerHour:   getIntEnv("GENERATION_LIMIT_PER_HOUR", 10),
		SearchRateLimitPerMinute: getIntEnv("SEARCH_RATE_LIMIT_PER_MINUTE", 30),
		FreePlanPlaylistLimit:    getIntEnv("FREE_PLAN_PLAYLIST_LIMIT", 3),

		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePremiumPriceID: getEnv("STRIPE_PREMIUM_PRICE_ID", ""),
		StripeProPriceID:     getEnv("STRIPE_PRO_PRICE_ID", ""),

		FrontendURL:        frontendURL,
		ShareBaseURL:       getEnv("SHARE_BASE_URL", frontendURL),
		CORSAllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		TrustedProxies:     getStringSliceEnv("TRUSTED_PROXIES"),

		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),
	}
}

func getStringSliceEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var result []string
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
