package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Conceptual-Machines/story-assistant/internal/models"
	"github.com/Conceptual-Machines/story-assistant/pkg/embedded"
)

const systemTemplate = "system"

// templateNames maps each assistance type to its embedded template
var templateNames = map[models.AssistanceType]string{
	models.AssistanceStoryIdea:        "story_idea",
	models.AssistancePlotOutline:      "plot_outline",
	models.AssistanceCharacterProfile: "character_profile",
	models.AssistanceOpeningParagraph: "opening_paragraph",
	models.AssistanceDialogue:         "dialogue",
	models.AssistanceSetting:          "setting",
	models.AssistanceShortStory:       "short_story",
}

// Loader renders the embedded prompt templates
type Loader struct {
	templates *template.Template
}

// NewPromptLoader parses the embedded templates
func NewPromptLoader() (*Loader, error) {
	tmpl, err := template.New("prompts").Option("missingkey=error").ParseFS(embedded.Prompts, "prompts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	return &Loader{templates: tmpl}, nil
}

// GetSystemPrompt renders the system prompt
func (l *Loader) GetSystemPrompt(params models.GenerationParams) (string, error) {
	return l.render(systemTemplate, params)
}

// GetTaskPrompt renders the base user prompt for the assistance type
func (l *Loader) GetTaskPrompt(params models.GenerationParams) (string, error) {
	name, ok := templateNames[params.AssistanceType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAssistanceType, params.AssistanceType)
	}
	return l.render(name, params)
}

func (l *Loader) render(name string, params models.GenerationParams) (string, error) {
	var sb strings.Builder
	if err := l.templates.ExecuteTemplate(&sb, name+".tmpl", params); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
