package models

import (
	"encoding/json"
	"fmt"
)

// AssistanceType is the kind of creative-writing help requested.
// The zero value is not a valid assistance type.
type AssistanceType int

const (
	AssistanceStoryIdea AssistanceType = iota + 1
	AssistancePlotOutline
	AssistanceCharacterProfile
	AssistanceOpeningParagraph
	AssistanceDialogue
	AssistanceSetting
	AssistanceShortStory
)

// AssistanceTypes lists every assistance type in display order
var AssistanceTypes = []AssistanceType{
	AssistanceStoryIdea,
	AssistancePlotOutline,
	AssistanceCharacterProfile,
	AssistanceOpeningParagraph,
	AssistanceDialogue,
	AssistanceSetting,
	AssistanceShortStory,
}

// DefaultAssistanceType is preselected in the form
const DefaultAssistanceType = AssistanceStoryIdea

var assistanceLabels = map[AssistanceType]string{
	AssistanceStoryIdea:        "Generate Story Idea",
	AssistancePlotOutline:      "Develop Plot Outline",
	AssistanceCharacterProfile: "Create Character Profile",
	AssistanceOpeningParagraph: "Write Opening Paragraph",
	AssistanceDialogue:         "Generate Dialogue",
	AssistanceSetting:          "Describe Setting",
	AssistanceShortStory:       "Write Complete Short Story",
}

// Valid reports whether a is one of the known assistance types
func (a AssistanceType) Valid() bool {
	_, ok := assistanceLabels[a]
	return ok
}

// String returns the label shown in the UI
func (a AssistanceType) String() string {
	if label, ok := assistanceLabels[a]; ok {
		return label
	}
	return fmt.Sprintf("AssistanceType(%d)", int(a))
}

// ParseAssistanceType resolves a UI label into an AssistanceType
func ParseAssistanceType(label string) (AssistanceType, error) {
	for _, a := range AssistanceTypes {
		if assistanceLabels[a] == label {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown assistance type %q", label)
}

// MarshalJSON encodes the assistance type as its label
func (a AssistanceType) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", a)
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an assistance type from its label
func (a *AssistanceType) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseAssistanceType(label)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
