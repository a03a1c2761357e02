package config

import (
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/pagegen/pkg/llm/gemini"
	"github.com/artem13815/pagegen/pkg/llm/openrouter"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "LLM_PROVIDER", "GEMINI_API_KEY", "OPENROUTER_API_KEY", "OPENROUTER_BASE_URL",
		"OPENROUTER_MODEL", "OPENROUTER_APP_TITLE", "OPENROUTER_REFERER", "GEMINI_BASE_URL", "GEMINI_MODEL",
		"OPS_PREFIX", "SWAGGER_ENABLED", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "key", cfg.GeminiAPIKey)
	assert.Equal(t, gemini.DefaultBaseURL, cfg.GeminiBaseURL)
	assert.Equal(t, gemini.DefaultModel, cfg.GeminiModel)
	assert.Equal(t, "/_", cfg.OpsPrefix)
	assert.False(t, cfg.SwaggerEnabled)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("PORT", "9000")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash")
	t.Setenv("OPS_PREFIX", "internal/")
	t.Setenv("SWAGGER_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, "/internal", cfg.OpsPrefix)
	assert.True(t, cfg.SwaggerEnabled)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadOpenRouter(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenRouter")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENROUTER_API_KEY")

	t.Setenv("OPENROUTER_API_KEY", "or-key")
	cfg, err := Load()
	require.NoError(t, err, "gemini key is not needed for openrouter")
	assert.Equal(t, ProviderOpenRouter, cfg.Provider)
	assert.Equal(t, openrouter.DefaultBaseURL, cfg.OpenRouterBase)
	assert.Equal(t, openrouter.DefaultModel, cfg.OpenRouterModel)
	assert.Equal(t, "pagegen", cfg.OpenRouterAppTitle)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("LOG_LEVEL", "chatty")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "xml")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("LOG_FORMAT", "")
	t.Setenv("OPS_PREFIX", "/")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("OPS_PREFIX", "")
	t.Setenv("LLM_PROVIDER", "ollama")
	_, err = Load()
	require.Error(t, err)
}
