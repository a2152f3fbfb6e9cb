package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VITE_GEMINI_API_KEY", "")
	t.Setenv("GENERATION_TIMEOUT", "")
	t.Setenv("GENERATION_MODE", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "")

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, ModeDirect, cfg.GenerationMode)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.StandardModel)
	assert.Equal(t, "gemini-3-pro-image-preview", cfg.PremiumModel)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VITE_GEMINI_API_KEY", "vite-key")
	t.Setenv("GENERATION_TIMEOUT", "20")
	t.Setenv("GENERATION_MODE", "PROXIED")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("APP_ENV", "")

	cfg := FromEnv()

	assert.Equal(t, "vite-key", cfg.GeminiAPIKey)
	assert.Equal(t, 20*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, ModeProxied, cfg.GenerationMode)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			SupabaseURL:        "https://example.supabase.co",
			SupabaseServiceKey: "service",
			GenerationMode:     ModeDirect,
			GenerationTimeout:  time.Second,
		}
	}

	require.NoError(t, base().validate())

	cfg := base()
	cfg.SupabaseURL = ""
	assert.Error(t, cfg.validate())

	cfg = base()
	cfg.GenerationMode = ModeProxied
	assert.Error(t, cfg.validate(), "proxied mode needs PROXY_URL")
	cfg.ProxyURL = "http://localhost:8080/api/generate"
	assert.NoError(t, cfg.validate())

	cfg = base()
	cfg.GenerationMode = "carrier-pigeon"
	assert.Error(t, cfg.validate())

	cfg = base()
	cfg.UseVertexAI = true
	assert.Error(t, cfg.validate())
}
