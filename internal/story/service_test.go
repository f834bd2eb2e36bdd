package story

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Conceptual-Machines/story-assistant/internal/llm"
	"github.com/Conceptual-Machines/story-assistant/internal/metrics"
	"github.com/Conceptual-Machines/story-assistant/internal/models"
	"github.com/Conceptual-Machines/story-assistant/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name     string
	complete func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error)
	requests []*llm.CompletionRequest
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.requests = append(p.requests, req)
	return p.complete(ctx, req)
}

type staticSource struct {
	provider llm.Provider
	err      error
}

func (s staticSource) GetProvider(context.Context, string) (llm.Provider, error) {
	return s.provider, s.err
}

type recordingRecorder struct {
	samples []metrics.GenerationSample
}

func (r *recordingRecorder) RecordAPIRequest(context.Context, string, int, time.Duration) {}

func (r *recordingRecorder) RecordGeneration(_ context.Context, s metrics.GenerationSample) {
	r.samples = append(r.samples, s)
}

func newTestService(t *testing.T, source ProviderSource, recorder metrics.Recorder, timeout time.Duration) *Service {
	t.Helper()
	builder, err := prompt.NewPromptBuilder()
	require.NoError(t, err)

	svc, err := NewService(Deps{
		Catalog:   models.NewCatalog(nil),
		Builder:   builder,
		Providers: source,
		Recorder:  recorder,
		Timeout:   timeout,
	})
	require.NoError(t, err)
	return svc
}

// ollamaService wires the real Ollama provider against url
func ollamaService(t *testing.T, url string, timeout time.Duration) *Service {
	t.Helper()
	factory, err := llm.NewProviderFactory(llm.FactoryConfig{BaseURL: url})
	require.NoError(t, err)
	return newTestService(t, factory, nil, timeout)
}

func defaultParams() models.GenerationParams {
	return models.NewCatalog(nil).Defaults()
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(Deps{})
	assert.Error(t, err)
}

func TestGenerate_ReturnsContentVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"mistral:latest","message":{"role":"assistant","content":"X"},"done":true}`))
	}))
	defer server.Close()

	result := ollamaService(t, server.URL, time.Minute).Generate(context.Background(), defaultParams())

	assert.True(t, result.OK())
	assert.Equal(t, "X", result.Text())
	assert.Equal(t, "ollama", result.Provider)
}

func TestGenerate_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	result := ollamaService(t, server.URL, time.Minute).Generate(context.Background(), defaultParams())

	require.False(t, result.OK())
	assert.Equal(t, llm.KindBadStatus, result.Err.Kind)
	assert.Contains(t, result.Text(), "500")
	assert.Equal(t, "Error: API returned status code 500", result.Text())
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	result := ollamaService(t, url, time.Minute).Generate(context.Background(), defaultParams())

	require.False(t, result.OK())
	assert.Equal(t, llm.KindUnreachable, result.Err.Kind)
	assert.Equal(t, "Error: Cannot connect to Ollama. Please make sure Ollama is running on localhost:11434", result.Text())
}

func TestGenerate_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	result := ollamaService(t, server.URL, 50*time.Millisecond).Generate(context.Background(), defaultParams())

	require.False(t, result.OK())
	assert.Equal(t, llm.KindTimeout, result.Err.Kind)
	assert.Equal(t, "Error: Request timed out after 50ms", result.Text())
}

func TestGenerate_CallerCanceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	factory, err := llm.NewProviderFactory(llm.FactoryConfig{BaseURL: server.URL})
	require.NoError(t, err)
	recorder := &recordingRecorder{}
	svc := newTestService(t, factory, recorder, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	result := svc.Generate(ctx, defaultParams())

	require.False(t, result.OK())
	assert.Equal(t, llm.KindTimeout, result.Err.Kind)
	assert.Equal(t, "Error: Request was canceled", result.Text())
	require.Len(t, recorder.samples, 1)
	assert.Equal(t, "canceled", recorder.samples[0].Outcome)
}

func TestGenerate_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"done":true}`))
	}))
	defer server.Close()

	result := ollamaService(t, server.URL, time.Minute).Generate(context.Background(), defaultParams())

	require.False(t, result.OK())
	assert.Equal(t, llm.KindMalformedResponse, result.Err.Kind)
	assert.Contains(t, result.Text(), "Error: ")
}

func TestGenerate_SendsBuiltPrompts(t *testing.T) {
	provider := &stubProvider{name: "ollama", complete: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "A dragon", Usage: llm.Usage{InputTokens: 3, OutputTokens: 4}}, nil
	}}
	recorder := &recordingRecorder{}
	svc := newTestService(t, staticSource{provider: provider}, recorder, time.Minute)

	params := defaultParams()
	params.AssistanceType = models.AssistanceShortStory
	params.Genre = "Horror"
	params.WordLimit = 800
	params.AdditionalPrompt = "Set it in a lighthouse"

	result := svc.Generate(context.Background(), params)
	require.True(t, result.OK())
	assert.Equal(t, "A dragon", result.Text())
	assert.Equal(t, 7, result.Usage.Total())

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, "mistral:latest", req.Model)
	assert.Equal(t, "You are a creative writing assistant specializing in Horror with a Descriptive style. Create Neutral content that is engaging and original.", req.SystemPrompt)
	assert.Equal(t, "Write a complete short story in the Horror genre with approximately 800 words using a Descriptive style.\nAdditional requirements: Set it in a lighthouse", req.UserPrompt)

	require.Len(t, recorder.samples, 1)
	assert.Equal(t, metrics.OutcomeSuccess, recorder.samples[0].Outcome)
	assert.Equal(t, "Write Complete Short Story", recorder.samples[0].AssistanceType)
	assert.Equal(t, 4, recorder.samples[0].OutputTokens)
}

func TestGenerate_InvalidParamsNeverCallProvider(t *testing.T) {
	provider := &stubProvider{name: "ollama", complete: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
		t.Fatal("provider must not be called")
		return nil, nil
	}}
	recorder := &recordingRecorder{}
	svc := newTestService(t, staticSource{provider: provider}, recorder, time.Minute)

	tests := []struct {
		name   string
		mutate func(p *models.GenerationParams)
	}{
		{"word limit too high", func(p *models.GenerationParams) { p.WordLimit = 2100 }},
		{"word limit too low", func(p *models.GenerationParams) { p.WordLimit = 50 }},
		{"unknown genre", func(p *models.GenerationParams) { p.Genre = "Western" }},
		{"unknown model", func(p *models.GenerationParams) { p.Model = "gpt-4o" }},
		{"zero assistance type", func(p *models.GenerationParams) { p.AssistanceType = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := defaultParams()
			tt.mutate(&params)

			result := svc.Generate(context.Background(), params)
			require.False(t, result.OK())
			assert.Equal(t, llm.KindInvalidRequest, result.Err.Kind)
			assert.True(t, errors.Is(result.Err, models.ErrInvalidParams))
			assert.Contains(t, result.Text(), "Error: invalid generation parameters")
		})
	}
	assert.Len(t, recorder.samples, len(tests))
	assert.Equal(t, "invalid_request", recorder.samples[0].Outcome)
}

func TestGenerate_ProviderLookupFailure(t *testing.T) {
	svc := newTestService(t, staticSource{err: errors.New("gemini API key not configured")}, nil, time.Minute)

	result := svc.Generate(context.Background(), defaultParams())
	require.False(t, result.OK())
	assert.Equal(t, llm.KindInvalidRequest, result.Err.Kind)
	assert.Equal(t, "Error: gemini API key not configured", result.Text())
}

func TestGenerate_UnclassifiedProviderError(t *testing.T) {
	provider := &stubProvider{name: "gemini", complete: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, errors.New("empty candidate list")
	}}
	svc := newTestService(t, staticSource{provider: provider}, nil, time.Minute)

	result := svc.Generate(context.Background(), defaultParams())
	require.False(t, result.OK())
	assert.Equal(t, llm.KindMalformedResponse, result.Err.Kind)
	assert.Equal(t, "Error: empty candidate list", result.Text())
}

func TestGenerate_RecoversFromPanic(t *testing.T) {
	provider := &stubProvider{name: "ollama", complete: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
		panic("nil map write")
	}}
	svc := newTestService(t, staticSource{provider: provider}, nil, time.Minute)

	var result Result
	assert.NotPanics(t, func() {
		result = svc.Generate(context.Background(), defaultParams())
	})
	require.False(t, result.OK())
	assert.Contains(t, result.Text(), "nil map write")
}

func TestResultText(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"content", Result{Content: "Once upon a time"}, "Once upon a time"},
		{"empty content", Result{}, ""},
		{"bad status", Result{Err: &llm.Error{Kind: llm.KindBadStatus, StatusCode: 404}}, "Error: API returned status code 404"},
		{"unreachable openai backend", Result{Err: &llm.Error{Kind: llm.KindUnreachable, Provider: "openai"}}, "Error: Cannot connect to Ollama. Please make sure Ollama is running on localhost:11434"},
		{"unreachable hosted", Result{Err: &llm.Error{Kind: llm.KindUnreachable, Provider: "gemini"}}, "Error: Cannot connect to gemini"},
		{"timeout", Result{Err: &llm.Error{Kind: llm.KindTimeout}, Timeout: 2 * time.Minute}, "Error: Request timed out after 2m0s"},
		{"timeout without bound", Result{Err: &llm.Error{Kind: llm.KindTimeout}}, "Error: Request timed out"},
		{"canceled", Result{Err: &llm.Error{Kind: llm.KindTimeout, Err: context.Canceled}, Timeout: 2 * time.Minute}, "Error: Request was canceled"},
		{"malformed", Result{Err: &llm.Error{Kind: llm.KindMalformedResponse, Err: errors.New("missing message.content")}}, "Error: missing message.content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Text())
		})
	}
}
