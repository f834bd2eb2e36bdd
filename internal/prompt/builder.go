package prompt

import (
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/story-assistant/internal/models"
)

// ErrUnknownAssistanceType is returned for assistance types without a template
var ErrUnknownAssistanceType = errors.New("unknown assistance type")

// additionalRequirementsPrefix introduces the user's free-text requirements
const additionalRequirementsPrefix = "Additional requirements: "

// Pair is the system and user message sent to the completion endpoint
type Pair struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Builder builds prompt pairs for the creative writing assistant
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() (*Builder, error) {
	loader, err := NewPromptLoader()
	if err != nil {
		return nil, err
	}
	return &Builder{loader: loader}, nil
}

// Build derives the prompt pair from the request parameters. The result only
// depends on params.
func (b *Builder) Build(params models.GenerationParams) (Pair, error) {
	if !params.AssistanceType.Valid() {
		return Pair{}, fmt.Errorf("%w: %s", ErrUnknownAssistanceType, params.AssistanceType)
	}

	system, err := b.loader.GetSystemPrompt(params)
	if err != nil {
		return Pair{}, err
	}

	user, err := b.loader.GetTaskPrompt(params)
	if err != nil {
		return Pair{}, err
	}

	if params.AdditionalPrompt != "" {
		user += "\n" + additionalRequirementsPrefix + params.AdditionalPrompt
	}

	return Pair{System: system, User: user}, nil
}
