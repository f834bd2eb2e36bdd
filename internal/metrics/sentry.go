package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics records requests and generations as Sentry spans
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics(enabled bool) *SentryMetrics {
	return &SentryMetrics{enabled: enabled}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))
	span.SetData("duration_ms", duration.Milliseconds())

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordGeneration attaches the generation outcome and token usage to the
// current transaction and records a child span
func (m *SentryMetrics) RecordGeneration(ctx context.Context, sample GenerationSample) {
	if !m.enabled {
		return
	}

	total := sample.InputTokens + sample.OutputTokens
	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("llm.model", sample.Model)
		transaction.SetTag("llm.outcome", sample.Outcome)
		transaction.SetData("llm.total_tokens", total)
	}

	span := sentry.StartSpan(ctx, "generation.request")
	defer span.Finish()

	span.SetTag("model", sample.Model)
	span.SetTag("assistance_type", sample.AssistanceType)
	span.SetTag("outcome", sample.Outcome)
	span.SetData("duration_ms", sample.Duration.Milliseconds())
	span.SetData("input_tokens", sample.InputTokens)
	span.SetData("output_tokens", sample.OutputTokens)
	span.SetData("total_tokens", total)

	switch sample.Outcome {
	case OutcomeSuccess:
		span.Status = sentry.SpanStatusOK
	case "timeout":
		span.Status = sentry.SpanStatusDeadlineExceeded
	case "canceled":
		span.Status = sentry.SpanStatusCanceled
	case "unreachable":
		span.Status = sentry.SpanStatusUnavailable
	default:
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Generation: %s (%s)", sample.AssistanceType, sample.Model)
}
