package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkiio/coffee-clock/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("GLM_API_KEY", "glm-key")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_PUBLISHABLE_KEY", "publishable-key")
	t.Setenv("SUPABASE_JWT_SECRET", "jwt-secret")
	t.Setenv("WORKER_SERVICE_KEY", "worker-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "glm-4v-flash", cfg.GLMModel)
	assert.Equal(t, "scan-photos", cfg.SupabaseStorageBucket)
	assert.Equal(t, int64(5<<20), cfg.MaxImageBytes)
	assert.Equal(t, 90*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 60, cfg.PollMaxAttempts)
	assert.Nil(t, cfg.ModelWrapperTokens)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GLM_API_KEY", "")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GLM_API_KEY")
}

func TestLoad_WrapperTokenList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MODEL_WRAPPER_TOKENS", "<box> , </box>,")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"<box>", "</box>"}, cfg.ModelWrapperTokens)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_IMAGE_MB", "2")
	t.Setenv("POLL_INTERVAL_MS", "500")
	t.Setenv("POLL_MAX_ATTEMPTS", "10")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, int64(2<<20), cfg.MaxImageBytes)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10, cfg.PollMaxAttempts)
}
