package story

import (
	"fmt"
	"time"

	"github.com/Conceptual-Machines/story-assistant/internal/llm"
)

const (
	errorPrefix = "Error: "

	unreachableLocalMessage = "Cannot connect to Ollama. Please make sure Ollama is running on localhost:11434"

	outcomeCanceled = "canceled"
)

// Result is the outcome of one generation: either Content or Err is set
type Result struct {
	Content  string
	Err      *llm.Error
	Model    string
	Provider string
	Usage    llm.Usage
	Duration time.Duration
	// Timeout is the bound the call ran under, used when rendering KindTimeout
	Timeout time.Duration
}

// OK reports whether the generation produced content
func (r Result) OK() bool {
	return r.Err == nil
}

// Text renders the result as the single string shown to the user
func (r Result) Text() string {
	if r.Err == nil {
		return r.Content
	}

	switch r.Err.Kind {
	case llm.KindUnreachable:
		if r.Err.Provider == "" || r.Err.Provider == "ollama" || r.Err.Provider == "openai" {
			return errorPrefix + unreachableLocalMessage
		}
		return fmt.Sprintf("%sCannot connect to %s", errorPrefix, r.Err.Provider)
	case llm.KindBadStatus:
		return fmt.Sprintf("%sAPI returned status code %d", errorPrefix, r.Err.StatusCode)
	case llm.KindTimeout:
		if r.Err.Canceled() {
			return errorPrefix + "Request was canceled"
		}
		if r.Timeout > 0 {
			return fmt.Sprintf("%sRequest timed out after %s", errorPrefix, r.Timeout)
		}
		return errorPrefix + "Request timed out"
	default:
		return errorPrefix + r.Err.Cause()
	}
}

// Outcome is "success", "canceled" or the error kind, used as a metric label
func (r Result) Outcome() string {
	if r.Err == nil {
		return "success"
	}
	if r.Err.Canceled() {
		return outcomeCanceled
	}
	return r.Err.Kind.String()
}
