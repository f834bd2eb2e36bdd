package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Conceptual-Machines/story-assistant/internal/config"
	"github.com/Conceptual-Machines/story-assistant/internal/llm"
	"github.com/Conceptual-Machines/story-assistant/internal/metrics"
	"github.com/Conceptual-Machines/story-assistant/internal/models"
	"github.com/Conceptual-Machines/story-assistant/internal/prompt"
	"github.com/Conceptual-Machines/story-assistant/internal/story"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, ollamaURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment:        "test",
		LLMBackend:         "ollama",
		OllamaURL:          ollamaURL,
		LLMTimeout:         5 * time.Second,
		SessionSecret:      "test-secret",
		CORSAllowedOrigins: []string{"*"},
	}

	factory, err := llm.NewProviderFactory(llm.FactoryConfig{BaseURL: cfg.OllamaURL, Timeout: cfg.LLMTimeout})
	require.NoError(t, err)
	builder, err := prompt.NewPromptBuilder()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	prom := metrics.NewPrometheus(reg)

	svc, err := story.NewService(story.Deps{
		Catalog:   models.NewCatalog(nil),
		Builder:   builder,
		Providers: factory,
		Recorder:  prom,
		Timeout:   cfg.LLMTimeout,
	})
	require.NoError(t, err)

	return SetupRouter(cfg, Deps{
		Generator:  svc,
		Pinger:     factory,
		Prometheus: prom,
		Gatherer:   reg,
		Recorder:   metrics.Nop{},
		Version:    "test",
	})
}

func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte("Ollama is running"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"mistral:latest","message":{"role":"assistant","content":"X"},"done":true,"prompt_eval_count":4,"eval_count":1}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRouterGenerateEndToEnd(t *testing.T) {
	router := newTestRouter(t, fakeOllama(t).URL)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{"assistance_type":"Develop Plot Outline"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "X", resp["content"])
	assert.Equal(t, w.Header().Get("X-Request-ID"), resp["request_id"])
}

func TestRouterGenerateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()
	router := newTestRouter(t, url)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot connect to Ollama")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouterServesPagesAndProbes(t *testing.T) {
	router := newTestRouter(t, fakeOllama(t).URL)

	tests := []struct {
		path     string
		wantCode int
		contains string
	}{
		{"/health", http.StatusOK, "healthy"},
		{"/ready", http.StatusOK, "ready"},
		{"/api/metrics", http.StatusOK, "go_version"},
		{"/api/v1/options", http.StatusOK, "Science Fiction"},
		{"/", http.StatusOK, "Creative Writing Assistant"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouterPrometheusExposition(t *testing.T) {
	router := newTestRouter(t, fakeOllama(t).URL)

	form := "assistance_type=Generate+Story+Idea&genre=Horror&word_limit=200"
	req := httptest.NewRequest(http.MethodPost, "/htmx/generate", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ">X</textarea>")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `story_assistant_http_requests_total{method="POST",path="/htmx/generate",status="200"} 1`)
	assert.Contains(t, body, `story_assistant_story_generations_total{assistance_type="Generate Story Idea",model="mistral:latest",outcome="success"} 1`)
}
