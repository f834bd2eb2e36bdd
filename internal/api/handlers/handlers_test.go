package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Conceptual-Machines/story-assistant/internal/llm"
	"github.com/Conceptual-Machines/story-assistant/internal/models"
	"github.com/Conceptual-Machines/story-assistant/internal/story"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	catalog *models.Catalog
	result  story.Result
	got     []models.GenerationParams
}

func (g *stubGenerator) Generate(_ context.Context, params models.GenerationParams) story.Result {
	g.got = append(g.got, params)
	return g.result
}

func (g *stubGenerator) Catalog() *models.Catalog {
	return g.catalog
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }
func (p stubPinger) BaseURL() string { return "http://localhost:11434" }

func setupRouter(gen *stubGenerator, pinger Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	generation := NewGenerationHandler(gen)
	health := NewHealthHandler(pinger)
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.Ready)
	router.GET("/api/metrics", NewMetricsHandler("test", "ollama", pinger.BaseURL()).GetMetrics)
	router.GET("/api/v1/options", generation.Options)
	router.POST("/api/v1/generate", generation.Generate)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(&stubGenerator{catalog: models.NewCatalog(nil)}, stubPinger{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestReady(t *testing.T) {
	router := setupRouter(&stubGenerator{catalog: models.NewCatalog(nil)}, stubPinger{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reachable"`)

	router = setupRouter(&stubGenerator{catalog: models.NewCatalog(nil)}, stubPinger{err: errors.New("connection refused")})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestGetMetrics(t *testing.T) {
	router := setupRouter(&stubGenerator{catalog: models.NewCatalog(nil)}, stubPinger{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, "ollama", resp.LLM.Backend)
	assert.Positive(t, resp.System.NumGoroutine)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5.00s", formatUptime(5*time.Second))
	assert.Equal(t, "2m3.00s", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1h0m1.50s", formatUptime(time.Hour+1500*time.Millisecond))
}

func TestOptions(t *testing.T) {
	router := setupRouter(&stubGenerator{catalog: models.NewCatalog(nil)}, stubPinger{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/options", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Len(t, resp["genres"], 10)
	assert.Len(t, resp["writing_styles"], 8)
	assert.Len(t, resp["tones"], 3)
	assert.Len(t, resp["assistance_types"], 7)
	assert.Contains(t, resp["assistance_types"], "Generate Story Idea")

	defaults, ok := resp["defaults"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "mistral:latest", defaults["model"])
	assert.Equal(t, float64(500), defaults["word_limit"])
}

func TestGenerateSuccess(t *testing.T) {
	gen := &stubGenerator{
		catalog: models.NewCatalog(nil),
		result:  story.Result{Content: "X", Model: "mistral:latest", Usage: llm.Usage{InputTokens: 2, OutputTokens: 3}},
	}
	router := setupRouter(gen, stubPinger{})

	w := postJSON(router, "/api/v1/generate", `{"assistance_type":"Describe Setting","genre":"Mystery","word_limit":300}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "X", resp.Content)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
	assert.Empty(t, resp.Error)

	require.Len(t, gen.got, 1)
	assert.Equal(t, models.AssistanceSetting, gen.got[0].AssistanceType)
	assert.Equal(t, "Mystery", gen.got[0].Genre)
	assert.Equal(t, 300, gen.got[0].WordLimit)
	assert.Equal(t, "Descriptive", gen.got[0].WritingStyle, "omitted fields take defaults")
}

func TestGenerateRejectsUnknownAssistanceType(t *testing.T) {
	gen := &stubGenerator{catalog: models.NewCatalog(nil)}
	router := setupRouter(gen, stubPinger{})

	w := postJSON(router, "/api/v1/generate", `{"assistance_type":"Write a Poem"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"invalid_request"`)
	assert.Empty(t, gen.got)
}

func TestGenerateMapsErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        *llm.Error
		wantStatus int
		wantText   string
	}{
		{"invalid", llm.NewInvalidRequestError(errors.New("word limit 5000 outside [100, 2000]")), http.StatusBadRequest, "Error: word limit 5000 outside [100, 2000]"},
		{"unreachable", &llm.Error{Kind: llm.KindUnreachable, Provider: "ollama"}, http.StatusServiceUnavailable, "Error: Cannot connect to Ollama. Please make sure Ollama is running on localhost:11434"},
		{"bad status", &llm.Error{Kind: llm.KindBadStatus, StatusCode: 500}, http.StatusBadGateway, "Error: API returned status code 500"},
		{"malformed", &llm.Error{Kind: llm.KindMalformedResponse, Err: errors.New("bad json")}, http.StatusBadGateway, "Error: bad json"},
		{"timeout", &llm.Error{Kind: llm.KindTimeout}, http.StatusGatewayTimeout, "Error: Request timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{catalog: models.NewCatalog(nil), result: story.Result{Err: tt.err}}
			router := setupRouter(gen, stubPinger{})

			w := postJSON(router, "/api/v1/generate", `{}`)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp GenerateResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantText, resp.Error)
			assert.Equal(t, tt.err.Kind.String(), resp.Kind)
			assert.Empty(t, resp.Content)
		})
	}
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusForKind(llm.Kind(0)))
}
