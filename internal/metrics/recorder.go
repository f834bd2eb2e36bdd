package metrics

import (
	"context"
	"time"
)

// Generation outcomes used as metric labels
const (
	OutcomeSuccess = "success"
)

// GenerationSample describes one finished story generation
type GenerationSample struct {
	Model          string
	AssistanceType string
	Provider       string
	// Outcome is OutcomeSuccess or the error kind of the failure
	Outcome      string
	Duration     time.Duration
	InputTokens  int
	OutputTokens int
}

// Success reports whether the generation produced content
func (s GenerationSample) Success() bool {
	return s.Outcome == OutcomeSuccess
}

// Recorder is a sink for request and generation metrics
type Recorder interface {
	RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration)
	RecordGeneration(ctx context.Context, sample GenerationSample)
}

// Multi fans every sample out to each recorder in order
type Multi []Recorder

func (m Multi) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	for _, r := range m {
		r.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
}

func (m Multi) RecordGeneration(ctx context.Context, sample GenerationSample) {
	for _, r := range m {
		r.RecordGeneration(ctx, sample)
	}
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordAPIRequest(context.Context, string, int, time.Duration) {}
func (Nop) RecordGeneration(context.Context, GenerationSample) {}
