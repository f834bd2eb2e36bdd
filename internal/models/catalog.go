package models

import "github.com/samber/lo"

// Word limit bounds for the slider
const (
	MinWordLimit     = 100
	MaxWordLimit     = 2000
	WordLimitStep    = 100
	DefaultWordLimit = 500
)

// Form defaults
const (
	DefaultModel        = "mistral:latest"
	DefaultGenre        = "Fantasy"
	DefaultWritingStyle = "Descriptive"
	DefaultTone         = "Neutral"
)

// Catalog holds the choices offered by the form. It is built once at startup
// and never mutated afterwards.
type Catalog struct {
	Models          []string         `json:"models"`
	AssistanceTypes []AssistanceType `json:"assistance_types"`
	Genres          []string         `json:"genres"`
	WritingStyles   []string         `json:"writing_styles"`
	Tones           []string         `json:"tones"`
	ExamplePrompts  []string         `json:"example_prompts"`
	WordLimit       WordLimitRange   `json:"word_limit"`
}

// WordLimitRange describes the word limit slider
type WordLimitRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Step    int `json:"step"`
	Default int `json:"default"`
}

// DefaultModels are the local models offered when none are configured
var DefaultModels = []string{
	"mistral:latest",
	"llama3.2:latest",
	"gemma:7b",
	"qwen2.5-coder:3b",
}

var genres = []string{
	"Fantasy",
	"Science Fiction",
	"Mystery",
	"Romance",
	"Horror",
	"Literary Fiction",
	"Historical Fiction",
	"Adventure",
	"Thriller",
	"Comedy",
}

var writingStyles = []string{
	"Descriptive",
	"Minimalist",
	"Stream of Consciousness",
	"Lyrical",
	"Suspenseful",
	"Humorous",
	"Dark and Moody",
	"Fast-paced",
}

var tones = []string{
	"Light and Uplifting",
	"Neutral",
	"Dark and Serious",
}

var examplePrompts = []string{
	"Generate a story about a time traveler who can only travel to random times",
	"Create a character who is a retired superhero trying to live a normal life",
	"Describe a futuristic city where dreams are bought and sold",
	"Write a dialogue between two AI programs falling in love",
}

// NewCatalog builds the catalog. An empty model list falls back to DefaultModels.
func NewCatalog(modelNames []string) *Catalog {
	modelNames = lo.Uniq(lo.Compact(modelNames))
	if len(modelNames) == 0 {
		modelNames = DefaultModels
	}

	return &Catalog{
		Models:          append([]string(nil), modelNames...),
		AssistanceTypes: append([]AssistanceType(nil), AssistanceTypes...),
		Genres:          append([]string(nil), genres...),
		WritingStyles:   append([]string(nil), writingStyles...),
		Tones:           append([]string(nil), tones...),
		ExamplePrompts:  append([]string(nil), examplePrompts...),
		WordLimit: WordLimitRange{
			Min:     MinWordLimit,
			Max:     MaxWordLimit,
			Step:    WordLimitStep,
			Default: DefaultWordLimit,
		},
	}
}

// DefaultModel returns the preselected model
func (c *Catalog) DefaultModel() string {
	if lo.Contains(c.Models, DefaultModel) {
		return DefaultModel
	}
	return c.Models[0]
}

// Defaults returns the parameters the form starts with
func (c *Catalog) Defaults() GenerationParams {
	return GenerationParams{
		Model:          c.DefaultModel(),
		AssistanceType: DefaultAssistanceType,
		Genre:          DefaultGenre,
		WritingStyle:   DefaultWritingStyle,
		WordLimit:      DefaultWordLimit,
		Tone:           DefaultTone,
	}
}
