package llm

import (
	"context"
	"time"
)

// Message roles understood by every backend
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Provider sends one prompt pair to a chat-completion backend and returns the reply
type Provider interface {
	// Complete performs a single, non-streaming completion. Failures are
	// returned as *Error so callers can tell them apart by Kind.
	Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name (e.g., "ollama", "openai", "gemini")
	Name() string
}

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest contains everything a provider needs for one call
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
}

// Messages returns the system and user messages in the order they are sent
func (r *CompletionRequest) Messages() []Message {
	return []Message{
		{Role: RoleSystem, Content: r.SystemPrompt},
		{Role: RoleUser, Content: r.UserPrompt},
	}
}

// Usage holds token counts reported by the backend, zero when unknown
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// CompletionResponse is the generated text plus call metadata
type CompletionResponse struct {
	Content  string        `json:"content"`
	Model    string        `json:"model"`
	Usage    Usage         `json:"usage"`
	Duration time.Duration `json:"-"`
}
