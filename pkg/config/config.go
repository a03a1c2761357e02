package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/artem13815/pagegen/pkg/llm/gemini"
	"github.com/artem13815/pagegen/pkg/llm/openrouter"
)

// Supported model providers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Port string

	// Provider selects the streaming model backend.
	Provider string

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	OpenRouterAPIKey   string
	OpenRouterBase     string
	OpenRouterModel    string
	OpenRouterAppTitle string
	OpenRouterReferer  string

	// OpsPrefix is the path prefix reserved for health, metrics and docs.
	// Everything outside it is a generated page.
	OpsPrefix      string
	SwaggerEnabled bool

	LogLevel  log.Level
	LogFormat string
}

// Load reads environment variables, optionally from a .env file if present.
func Load() (Config, error) {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	level, err := log.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		Provider:           strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", gemini.DefaultBaseURL),
		GeminiModel:        getEnv("GEMINI_MODEL", gemini.DefaultModel),
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBase:     getEnv("OPENROUTER_BASE_URL", openrouter.DefaultBaseURL),
		OpenRouterModel:    getEnv("OPENROUTER_MODEL", openrouter.DefaultModel),
		OpenRouterAppTitle: getEnv("OPENROUTER_APP_TITLE", "pagegen"),
		OpenRouterReferer:  os.Getenv("OPENROUTER_REFERER"),
		OpsPrefix:          "/" + strings.Trim(getEnv("OPS_PREFIX", "/_"), "/"),
		SwaggerEnabled:     getEnvBool("SWAGGER_ENABLED", false),
		LogLevel:           level,
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports missing or inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required"))
		}
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			errs = append(errs, errors.New("OPENROUTER_API_KEY is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q: want gemini or openrouter", c.Provider))
	}
	if c.OpsPrefix == "/" {
		errs = append(errs, errors.New("OPS_PREFIX must not be the root path"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q: want text or json", c.LogFormat))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
