// Package story turns generation parameters into generated text or a
// classified error. It is the only entry point the HTTP layers call.
package story

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/story-assistant/internal/llm"
	"github.com/Conceptual-Machines/story-assistant/internal/logger"
	"github.com/Conceptual-Machines/story-assistant/internal/metrics"
	"github.com/Conceptual-Machines/story-assistant/internal/models"
	"github.com/Conceptual-Machines/story-assistant/internal/observability"
	"github.com/Conceptual-Machines/story-assistant/internal/prompt"
)

const traceName = "story-generation"

// ProviderSource resolves the provider serving a model
type ProviderSource interface {
	GetProvider(ctx context.Context, model string) (llm.Provider, error)
}

// Deps are the collaborators of a Service
type Deps struct {
	Catalog   *models.Catalog
	Builder   *prompt.Builder
	Providers ProviderSource
	Recorder  metrics.Recorder
	Tracer    *observability.LangfuseClient
	Timeout   time.Duration
}

// Service generates creative writing content
type Service struct {
	catalog   *models.Catalog
	builder   *prompt.Builder
	providers ProviderSource
	recorder  metrics.Recorder
	tracer    *observability.LangfuseClient
	timeout   time.Duration
}

// NewService creates a story service. Catalog, Builder and Providers are required.
func NewService(deps Deps) (*Service, error) {
	if deps.Catalog == nil || deps.Builder == nil || deps.Providers == nil {
		return nil, errors.New("story: catalog, builder and providers are required")
	}

	s := &Service{
		catalog:   deps.Catalog,
		builder:   deps.Builder,
		providers: deps.Providers,
		recorder:  deps.Recorder,
		tracer:    deps.Tracer,
		timeout:   deps.Timeout,
	}
	if s.recorder == nil {
		s.recorder = metrics.Nop{}
	}
	if s.tracer == nil {
		s.tracer = observability.Disabled()
	}
	if s.timeout <= 0 {
		s.timeout = llm.DefaultTimeout
	}
	return s, nil
}

// Catalog returns the option catalog the service validates against
func (s *Service) Catalog() *models.Catalog {
	return s.catalog
}

// Generate runs one generation. It blocks until the completion endpoint
// answers, fails or the timeout elapses, and never returns a raw error.
func (s *Service) Generate(ctx context.Context, params models.GenerationParams) (result Result) {
	startTime := time.Now()
	result = Result{Model: params.Model, Timeout: s.timeout}

	defer func() {
		if r := recover(); r != nil {
			result.Content = ""
			result.Err = &llm.Error{Kind: llm.KindMalformedResponse, Provider: result.Provider, Err: fmt.Errorf("internal error: %v", r)}
		}
		result.Duration = time.Since(startTime)
		s.observe(ctx, params, result)
	}()

	if err := params.Validate(s.catalog); err != nil {
		result.Err = llm.NewInvalidRequestError(err)
		return result
	}

	pair, err := s.builder.Build(params)
	if err != nil {
		result.Err = llm.NewInvalidRequestError(err)
		return result
	}

	logger.Debug("Prompt built", logger.Fields{
		"model":           params.Model,
		"assistance_type": params.AssistanceType.String(),
		"system_chars":    len(pair.System),
		"user_chars":      len(pair.User),
	})

	provider, err := s.providers.GetProvider(ctx, params.Model)
	if err != nil {
		result.Err = llm.NewInvalidRequestError(err)
		return result
	}
	result.Provider = provider.Name()

	request := &llm.CompletionRequest{
		Model:        params.Model,
		SystemPrompt: pair.System,
		UserPrompt:   pair.User,
	}

	trace := s.tracer.StartTrace(ctx, traceName, map[string]interface{}{
		"assistance_type": params.AssistanceType.String(),
		"genre":           params.Genre,
		"writing_style":   params.WritingStyle,
		"tone":            params.Tone,
		"word_limit":      params.WordLimit,
	})
	defer trace.Finish()
	generation := trace.Generation(params.AssistanceType.String(), params.Model, request.Messages())

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := provider.Complete(callCtx, request)
	if err != nil {
		generation.Fail(err)
		result.Err = classify(provider.Name(), err)
		return result
	}
	generation.Succeed(resp)

	result.Content = resp.Content
	result.Usage = resp.Usage
	return result
}

func (s *Service) observe(ctx context.Context, params models.GenerationParams, result Result) {
	outcome := logger.GenerationOutcome{
		Model:          params.Model,
		AssistanceType: params.AssistanceType.String(),
		Provider:       result.Provider,
		Duration:       result.Duration,
		InputTokens:    result.Usage.InputTokens,
		OutputTokens:   result.Usage.OutputTokens,
	}
	if result.Err != nil {
		outcome.ErrorKind = result.Outcome()
	}
	logger.LogGenerationRequest(ctx, outcome, logger.Fields{"genre": params.Genre})

	s.recorder.RecordGeneration(ctx, metrics.GenerationSample{
		Model:          params.Model,
		AssistanceType: params.AssistanceType.String(),
		Provider:       result.Provider,
		Outcome:        result.Outcome(),
		Duration:       result.Duration,
		InputTokens:    result.Usage.InputTokens,
		OutputTokens:   result.Usage.OutputTokens,
	})
}

// classify keeps provider errors as they are and tags anything else
func classify(provider string, err error) *llm.Error {
	if llmErr, ok := llm.AsError(err); ok {
		return llmErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &llm.Error{Kind: llm.KindTimeout, Provider: provider, Err: err}
	}
	return &llm.Error{Kind: llm.KindMalformedResponse, Provider: provider, Err: err}
}
