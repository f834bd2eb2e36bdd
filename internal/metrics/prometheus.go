package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const promNamespace = "story_assistant"

// Prometheus exposes request and generation metrics for scraping
type Prometheus struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	generationsTotal     *prometheus.CounterVec
	generationDuration   *prometheus.HistogramVec
	generationTokensUsed *prometheus.CounterVec
}

// NewPrometheus registers the collectors with reg
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)

	return &Prometheus{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: promNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Subsystem: "story",
				Name:      "generations_total",
				Help:      "Total number of story generations",
			},
			[]string{"model", "assistance_type", "outcome"},
		),
		generationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: promNamespace,
				Subsystem: "story",
				Name:      "generation_duration_seconds",
				Help:      "Story generation duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
		generationTokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Subsystem: "llm",
				Name:      "tokens_used_total",
				Help:      "Total tokens reported by the completion endpoint",
			},
			[]string{"provider", "model", "type"}, // type: prompt/completion
		),
	}
}

// RecordAPIRequest is a no-op; HTTP traffic is counted by Middleware with method labels
func (p *Prometheus) RecordAPIRequest(context.Context, string, int, time.Duration) {}

// RecordGeneration records one generation sample
func (p *Prometheus) RecordGeneration(_ context.Context, sample GenerationSample) {
	p.generationsTotal.WithLabelValues(sample.Model, sample.AssistanceType, sample.Outcome).Inc()
	p.generationDuration.WithLabelValues(sample.Model).Observe(sample.Duration.Seconds())

	if sample.InputTokens > 0 {
		p.generationTokensUsed.WithLabelValues(sample.Provider, sample.Model, "prompt").Add(float64(sample.InputTokens))
	}
	if sample.OutputTokens > 0 {
		p.generationTokensUsed.WithLabelValues(sample.Provider, sample.Model, "completion").Add(float64(sample.OutputTokens))
	}
}

// Middleware counts every request by its route template
func (p *Prometheus) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		p.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		p.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
