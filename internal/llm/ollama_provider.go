package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/tidwall/gjson"
)

const (
	providerNameOllama = "ollama"

	// DefaultOllamaBaseURL is the default base URL for a local Ollama server
	DefaultOllamaBaseURL = "http://localhost:11434"

	// DefaultTimeout bounds a single completion call
	DefaultTimeout = 120 * time.Second

	chatPath             = "/api/chat"
	contentTypeJSON      = "application/json"
	maxErrorPreviewChars = 200
)

// OllamaConfig configures the OllamaProvider
type OllamaConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// OllamaProvider implements Provider using the Ollama /api/chat endpoint
type OllamaProvider struct {
	baseURL string
	client  *http.Client
}

// NewOllamaProvider creates a provider for the Ollama server at cfg.BaseURL.
// An empty BaseURL means DefaultOllamaBaseURL, a zero Timeout means DefaultTimeout.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &OllamaProvider{
		baseURL: baseURL,
		client:  client,
	}
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return providerNameOllama
}

// BaseURL returns the server the provider talks to
func (p *OllamaProvider) BaseURL() string {
	return p.baseURL
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// Complete sends the prompt pair to /api/chat with stream=false
func (p *OllamaProvider) Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error) {
	startTime := time.Now()

	span := sentry.StartSpan(ctx, "ollama.chat")
	span.Description = request.Model
	span.SetTag("provider", providerNameOllama)
	defer span.Finish()

	body, err := json.Marshal(ollamaChatRequest{
		Model:    request.Model,
		Messages: request.Messages(),
		Stream:   false,
	})
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, &Error{Kind: KindInvalidRequest, Provider: providerNameOllama, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(span.Context(), http.MethodPost, p.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, &Error{Kind: KindInvalidRequest, Provider: providerNameOllama, Err: err}
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		span.Status = sentry.SpanStatusUnavailable
		log.Printf("❌ OLLAMA REQUEST FAILED after %v: %v", time.Since(startTime), err)
		return nil, classifyTransportError(providerNameOllama, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		span.Status = sentry.SpanStatusUnavailable
		return nil, classifyTransportError(providerNameOllama, err)
	}

	span.SetData("status_code", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		span.Status = sentry.SpanStatusInternalError
		statusErr := &Error{Kind: KindBadStatus, Provider: providerNameOllama, StatusCode: resp.StatusCode}
		if msg := preview(data); msg != "" {
			statusErr.Err = errors.New(msg)
		}
		return nil, statusErr
	}

	response, err := parseChatResponse(data)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}
	response.Duration = time.Since(startTime)
	if response.Model == "" {
		response.Model = request.Model
	}

	span.Status = sentry.SpanStatusOK
	log.Printf("⏱️  OLLAMA CHAT COMPLETED in %v (model: %s, output_length=%d)",
		response.Duration, response.Model, len(response.Content))

	return response, nil
}

// parseChatResponse extracts message.content and token counts from an /api/chat reply
func parseChatResponse(data []byte) (*CompletionResponse, error) {
	if !gjson.ValidBytes(data) {
		return nil, &Error{
			Kind:     KindMalformedResponse,
			Provider: providerNameOllama,
			Err:      fmt.Errorf("response is not valid JSON: %s", preview(data)),
		}
	}

	content := gjson.GetBytes(data, "message.content")
	if !content.Exists() {
		return nil, &Error{
			Kind:     KindMalformedResponse,
			Provider: providerNameOllama,
			Err:      errors.New("response has no message.content field"),
		}
	}
	if content.Type != gjson.String {
		return nil, &Error{
			Kind:     KindMalformedResponse,
			Provider: providerNameOllama,
			Err:      fmt.Errorf("message.content is %s, not a string", content.Type),
		}
	}

	return &CompletionResponse{
		Content: content.String(),
		Model:   gjson.GetBytes(data, "model").String(),
		Usage: Usage{
			InputTokens:  int(gjson.GetBytes(data, "prompt_eval_count").Int()),
			OutputTokens: int(gjson.GetBytes(data, "eval_count").Int()),
		},
	}, nil
}

// Ping checks that the Ollama server answers on its root URL
func (p *OllamaProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/", nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return classifyTransportError(providerNameOllama, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindBadStatus, Provider: providerNameOllama, StatusCode: resp.StatusCode}
	}
	return nil
}

func preview(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorPreviewChars {
		return s[:maxErrorPreviewChars] + "..."
	}
	return s
}
