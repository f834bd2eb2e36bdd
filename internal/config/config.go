package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Config holds the application configuration. The service is stateless:
// no database, no user accounts.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Completion endpoint
	OllamaURL   string        // root of the local endpoint, /api/chat is appended
	LLMBackend  string        // "ollama" (native /api/chat) or "openai" (/v1 compatible API)
	LLMTimeout  time.Duration // bound on one outbound completion call
	StoryModels []string      // overrides the model dropdown when set

	// LLM API Keys
	GeminiAPIKey string // enables gemini-* models

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
	CloudWatchEnabled bool

	// Web
	SessionSecret      string
	CORSAllowedOrigins []string
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Environment:        v.GetString("ENVIRONMENT"),
		Port:               v.GetString("PORT"),
		OllamaURL:          strings.TrimSuffix(v.GetString("OLLAMA_URL"), "/"),
		LLMBackend:         strings.ToLower(v.GetString("LLM_BACKEND")),
		LLMTimeout:         v.GetDuration("LLM_TIMEOUT"),
		StoryModels:        splitList(v.GetString("STORY_MODELS")),
		GeminiAPIKey:       v.GetString("GEMINI_API_KEY"),
		SentryDSN:          v.GetString("SENTRY_DSN"),
		LangfusePublicKey:  v.GetString("LANGFUSE_PUBLIC_KEY"),
		LangfuseSecretKey:  v.GetString("LANGFUSE_SECRET_KEY"),
		LangfuseHost:       v.GetString("LANGFUSE_HOST"),
		LangfuseEnabled:    v.GetBool("LANGFUSE_ENABLED"),
		CloudWatchEnabled:  v.GetBool("CLOUDWATCH_ENABLED"),
		SessionSecret:      v.GetString("SESSION_SECRET"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("OLLAMA_URL", "http://localhost:11434")
	v.SetDefault("LLM_BACKEND", "ollama")
	v.SetDefault("LLM_TIMEOUT", "120s")
	v.SetDefault("LANGFUSE_HOST", "https://cloud.langfuse.com")
	v.SetDefault("LANGFUSE_ENABLED", false)
	v.SetDefault("CLOUDWATCH_ENABLED", false)
	v.SetDefault("SESSION_SECRET", "story-assistant-dev-secret")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

func (c *Config) validate() error {
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be a positive duration, got %s", c.LLMTimeout)
	}
	if c.LLMBackend != "ollama" && c.LLMBackend != "openai" {
		return fmt.Errorf("LLM_BACKEND must be ollama or openai, got %q", c.LLMBackend)
	}
	if c.IsProduction() && c.SessionSecret == "story-assistant-dev-secret" {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func splitList(raw string) []string {
	items := lo.Map(strings.Split(raw, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Compact(items)
}
