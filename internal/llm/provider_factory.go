package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Local backends
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// FactoryConfig configures the ProviderFactory
type FactoryConfig struct {
	Backend      string // "ollama" (default) or "openai"
	BaseURL      string
	Timeout      time.Duration
	GeminiAPIKey string
	HTTPClient   *http.Client
}

// ProviderFactory creates providers based on model name
type ProviderFactory struct {
	local        Provider
	ollama       *OllamaProvider
	geminiAPIKey string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg FactoryConfig) (*ProviderFactory, error) {
	ollama := NewOllamaProvider(OllamaConfig{
		BaseURL:    cfg.BaseURL,
		HTTPClient: cfg.HTTPClient,
		Timeout:    cfg.Timeout,
	})

	f := &ProviderFactory{
		ollama:       ollama,
		geminiAPIKey: cfg.GeminiAPIKey,
	}

	switch strings.ToLower(cfg.Backend) {
	case "", BackendOllama:
		f.local = ollama
	case BackendOpenAI:
		f.local = NewOpenAIProvider(OpenAIConfig{
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
			Timeout:    cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown backend: %s (allowed: ollama, openai)", cfg.Backend)
	}

	return f, nil
}

// GetProvider returns the provider that serves the given model
func (f *ProviderFactory) GetProvider(ctx context.Context, model string) (Provider, error) {
	if IsGeminiModel(model) {
		if f.geminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured for model %s", model)
		}
		return NewGeminiProvider(ctx, f.geminiAPIKey)
	}
	return f.local, nil
}

// Ping checks that the local completion endpoint is up
func (f *ProviderFactory) Ping(ctx context.Context) error {
	return f.ollama.Ping(ctx)
}

// BaseURL returns the local completion endpoint
func (f *ProviderFactory) BaseURL() string {
	return f.ollama.BaseURL()
}
