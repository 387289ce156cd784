package config

import (
	"testing"
	"time"

	"talkzilla/internal/constant"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "development")
	t.Setenv("LLM_BASE_URL", constant.DefaultLLMBaseURL)

	cfg := Load()

	assert.Equal(t, "8501", cfg.App.Port)
	assert.Equal(t, constant.DefaultLLMBaseURL, cfg.Ai.LLMBaseURL)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Session.Secure)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("LLM_TIMEOUT", "not-a-duration")

	cfg := Load()

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 1024, cfg.Upload.MaxBytes)
	assert.True(t, cfg.Tracing.Enabled)
	assert.True(t, cfg.Session.Secure)
	assert.Equal(t, 5*time.Minute, cfg.Ai.LLMTimeout)
	assert.True(t, cfg.IsProduction())
}
