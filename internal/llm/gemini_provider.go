package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	geminiModelPrefix  = "gemini-"
)

// GeminiProvider implements the Provider interface using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// IsGeminiModel reports whether the model is served by Gemini
func IsGeminiModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), geminiModelPrefix)
}

// Complete implements non-streaming generation using Gemini's API
func (p *GeminiProvider) Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error) {
	startTime := time.Now()

	span := sentry.StartSpan(ctx, "gemini.generate")
	span.Description = request.Model
	span.SetTag("provider", providerNameGemini)
	defer span.Finish()

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: request.SystemPrompt}},
		},
	}

	result, err := p.client.Models.GenerateContent(span.Context(), request.Model, genai.Text(request.UserPrompt), config)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", time.Since(startTime), err)
		return nil, classifyGeminiError(err)
	}

	text, err := geminiText(result)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, &Error{Kind: KindMalformedResponse, Provider: providerNameGemini, Err: err}
	}

	response := &CompletionResponse{
		Content:  text,
		Model:    request.Model,
		Duration: time.Since(startTime),
	}
	if result.UsageMetadata != nil {
		response.Usage = Usage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
		}
	}

	span.Status = sentry.SpanStatusOK
	log.Printf("⏱️  GEMINI GENERATION COMPLETED in %v (model: %s)", response.Duration, request.Model)

	return response, nil
}

// geminiText joins the text parts of the first candidate
func geminiText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", errors.New("no candidates in Gemini response")
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no parts in Gemini response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("gemini response did not include any output text")
	}
	return sb.String(), nil
}

func classifyGeminiError(err error) *Error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindBadStatus, Provider: providerNameGemini, StatusCode: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &Error{Kind: KindBadStatus, Provider: providerNameGemini, StatusCode: apiErrPtr.Code, Err: err}
	}

	classified := classifyTransportError(providerNameGemini, err)
	if classified.Kind == KindUnreachable && !isConnectionError(err) {
		classified.Kind = KindMalformedResponse
	}
	return classified
}
