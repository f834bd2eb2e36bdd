package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidParams is wrapped by every validation failure
var ErrInvalidParams = errors.New("invalid generation parameters")

// GenerationParams is one generate request coming from the form
type GenerationParams struct {
	Model            string         `json:"model"`
	AssistanceType   AssistanceType `json:"assistance_type"`
	Genre            string         `json:"genre"`
	WritingStyle     string         `json:"writing_style"`
	AdditionalPrompt string         `json:"additional_prompt,omitempty"`
	WordLimit        int            `json:"word_limit"`
	Tone             string         `json:"tone"`
}

// Validate checks the parameters against the catalog
func (p GenerationParams) Validate(c *Catalog) error {
	var problems []string

	if !lo.Contains(c.Models, p.Model) {
		problems = append(problems, fmt.Sprintf("model %q is not offered", p.Model))
	}
	if !p.AssistanceType.Valid() {
		problems = append(problems, fmt.Sprintf("unknown assistance type %s", p.AssistanceType))
	}
	if !lo.Contains(c.Genres, p.Genre) {
		problems = append(problems, fmt.Sprintf("unknown genre %q", p.Genre))
	}
	if !lo.Contains(c.WritingStyles, p.WritingStyle) {
		problems = append(problems, fmt.Sprintf("unknown writing style %q", p.WritingStyle))
	}
	if !lo.Contains(c.Tones, p.Tone) {
		problems = append(problems, fmt.Sprintf("unknown tone %q", p.Tone))
	}
	if p.WordLimit < MinWordLimit || p.WordLimit > MaxWordLimit {
		problems = append(problems, fmt.Sprintf("word limit %d outside [%d, %d]", p.WordLimit, MinWordLimit, MaxWordLimit))
	} else if p.WordLimit%WordLimitStep != 0 {
		problems = append(problems, fmt.Sprintf("word limit %d is not a multiple of %d", p.WordLimit, WordLimitStep))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(problems, "; "))
	}
	return nil
}
