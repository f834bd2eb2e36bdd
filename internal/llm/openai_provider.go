package llm

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	providerNameOpenAI = "openai"

	// Ollama ignores the key but the client requires one
	placeholderAPIKey = "ollama"
	openAICompatPath  = "/v1/"
)

// OpenAIConfig configures the OpenAIProvider
type OpenAIConfig struct {
	// BaseURL is the server root; the OpenAI-compatible API lives under /v1
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// OpenAIProvider implements Provider using the OpenAI-compatible Chat
// Completions API that Ollama exposes under /v1
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI-compatible provider
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = placeholderAPIKey
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL+openAICompatPath),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	return &OpenAIProvider{client: &client}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Complete performs one non-streaming chat completion
func (p *OpenAIProvider) Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error) {
	startTime := time.Now()

	span := sentry.StartSpan(ctx, "openai.chat_completion")
	span.Description = request.Model
	span.SetTag("provider", providerNameOpenAI)
	defer span.Finish()

	completion, err := p.client.Chat.Completions.New(span.Context(), openai.ChatCompletionNewParams{
		Model: openai.ChatModel(request.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(request.SystemPrompt),
			openai.UserMessage(request.UserPrompt),
		},
	})
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		log.Printf("❌ OPENAI-COMPATIBLE REQUEST FAILED after %v: %v", time.Since(startTime), err)
		return nil, classifyOpenAIError(err)
	}

	if len(completion.Choices) == 0 {
		span.Status = sentry.SpanStatusInternalError
		return nil, &Error{
			Kind:     KindMalformedResponse,
			Provider: providerNameOpenAI,
			Err:      errors.New("response has no choices"),
		}
	}

	message := completion.Choices[0].Message
	if !message.JSON.Content.Valid() {
		span.Status = sentry.SpanStatusInternalError
		return nil, &Error{
			Kind:     KindMalformedResponse,
			Provider: providerNameOpenAI,
			Err:      errors.New("response has no message content"),
		}
	}

	response := &CompletionResponse{
		Content: message.Content,
		Model:   completion.Model,
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
		Duration: time.Since(startTime),
	}
	if response.Model == "" {
		response.Model = request.Model
	}

	span.Status = sentry.SpanStatusOK
	log.Printf("⏱️  OPENAI-COMPATIBLE CHAT COMPLETED in %v (model: %s, tokens: %d)",
		response.Duration, response.Model, response.Usage.Total())

	return response, nil
}

func classifyOpenAIError(err error) *Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindBadStatus, Provider: providerNameOpenAI, StatusCode: apiErr.StatusCode, Err: err}
	}

	// The SDK wraps JSON decoding failures; anything that is not a transport
	// problem is reported as a malformed response.
	classified := classifyTransportError(providerNameOpenAI, err)
	if classified.Kind == KindUnreachable && !isConnectionError(err) {
		classified.Kind = KindMalformedResponse
	}
	return classified
}
