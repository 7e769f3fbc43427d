package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// GLM vision API
	GLMAPIKey     string
	GLMAPIBaseURL string
	GLMModel      string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Worker
	WorkerURL        string
	WorkerServiceKey string
	AnalysisTimeout  time.Duration

	// Model output parsing. Wrapper tokens are vendor-specific markup the
	// model may leave around its JSON; kept configurable because they change.
	ModelWrapperTokens []string

	// Scan submission
	MaxImageBytes int64

	// Polling
	PollInterval    time.Duration
	PollMaxAttempts int

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	cfg := &Config{
		GLMAPIKey:     getEnv("GLM_API_KEY", ""),
		GLMAPIBaseURL: getEnv("GLM_API_BASE_URL", "https://open.bigmodel.cn/api/paas/v4/"),
		GLMModel:      getEnv("GLM_MODEL", "glm-4v-flash"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "scan-photos"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		WorkerURL:        getEnv("WORKER_URL", "http://localhost:8080/internal/v1/analyze"),
		WorkerServiceKey: getEnv("WORKER_SERVICE_KEY", ""),
		AnalysisTimeout:  time.Duration(getEnvInt("ANALYSIS_TIMEOUT_SECONDS", 90)) * time.Second,

		ModelWrapperTokens: getEnvList("MODEL_WRAPPER_TOKENS", nil),

		MaxImageBytes: int64(getEnvInt("MAX_IMAGE_MB", 5)) << 20,

		PollInterval:    time.Duration(getEnvInt("POLL_INTERVAL_MS", 2000)) * time.Millisecond,
		PollMaxAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 60),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GLMAPIKey == "" {
		return fmt.Errorf("GLM_API_KEY is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.WorkerServiceKey == "" {
		return fmt.Errorf("WORKER_SERVICE_KEY is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
