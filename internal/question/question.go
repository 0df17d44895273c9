// Package question defines the survey question record produced by an
// import, its closed vocabularies and the rules that tie optional fields
// to the question type.
package question

import (
	"encoding/json"
	"strconv"
)

// Text length bounds, counted in characters after trimming.
const (
	MinTextLength = 10
	MaxTextLength = 1000

	MaxHelpTextLength       = 500
	MaxObjectiveLength      = 500
	MaxTargetAudienceLength = 200

	MinChoices = 2
	MaxChoices = 20

	MaxLikertRange = 10
)

// ParsedQuestion is a fully validated question ready for the store.
// Pointer and map fields are nil when the column was absent or blank;
// string fields are empty in that case.
type ParsedQuestion struct {
	Text     string
	Type     Type
	Category Category
	Scope    Scope

	IsRequired      *bool
	MinValue        *float64
	MaxValue        *float64
	ValidationRegex string
	HelpText        string
	Objective       string
	TargetAudience  string
	Origin          string
	Options         *Options
	LikertMin       *int
	LikertMax       *int
	LikertLabels    map[string]string

	// MinBound and MaxBound hold the bounds of DATA and HORA questions as
	// written in the file. MinValue and MaxValue stay nil for those types.
	MinBound string
	MaxBound string

	// ResearchGroupID is supplied by the caller, never read from the file.
	ResearchGroupID string
}

// Options holds the answer choices of a question.
type Options struct {
	Choices []string `json:"choices" yaml:"choices"`
}

// LikertLabel returns the label for a scale point, if any.
func (q *ParsedQuestion) LikertLabel(point int) (string, bool) {
	l, ok := q.LikertLabels[strconv.Itoa(point)]
	return l, ok
}

type questionJSON struct {
	Text            string            `json:"text" yaml:"text"`
	Type            string            `json:"type" yaml:"type"`
	Category        Category          `json:"category" yaml:"category"`
	Scope           Scope             `json:"scope" yaml:"scope"`
	IsRequired      *bool             `json:"isRequired,omitempty" yaml:"isRequired,omitempty"`
	MinValue        any               `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	MaxValue        any               `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	ValidationRegex string            `json:"validationRegex,omitempty" yaml:"validationRegex,omitempty"`
	HelpText        string            `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Objective       string            `json:"objective,omitempty" yaml:"objective,omitempty"`
	TargetAudience  string            `json:"targetAudience,omitempty" yaml:"targetAudience,omitempty"`
	Origin          string            `json:"origin,omitempty" yaml:"origin,omitempty"`
	Options         *Options          `json:"options,omitempty" yaml:"options,omitempty"`
	LikertMin       *int              `json:"likertMin,omitempty" yaml:"likertMin,omitempty"`
	LikertMax       *int              `json:"likertMax,omitempty" yaml:"likertMax,omitempty"`
	LikertLabels    map[string]string `json:"likertLabels,omitempty" yaml:"likertLabels,omitempty"`
	ResearchGroupID string            `json:"researchGroupId,omitempty" yaml:"researchGroupId,omitempty"`
}

// MarshalJSON renders the question with the API's camelCase field names.
func (q ParsedQuestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.wire())
}

// MarshalYAML renders the same shape as MarshalJSON.
func (q ParsedQuestion) MarshalYAML() (any, error) {
	return q.wire(), nil
}

func (q ParsedQuestion) wire() questionJSON {
	out := questionJSON{
		Text:            q.Text,
		Category:        q.Category,
		Scope:           q.Scope,
		IsRequired:      q.IsRequired,
		ValidationRegex: q.ValidationRegex,
		HelpText:        q.HelpText,
		Objective:       q.Objective,
		TargetAudience:  q.TargetAudience,
		Origin:          q.Origin,
		Options:         q.Options,
		LikertMin:       q.LikertMin,
		LikertMax:       q.LikertMax,
		LikertLabels:    q.LikertLabels,
		ResearchGroupID: q.ResearchGroupID,
	}
	if q.Type != nil {
		out.Type = q.Type.Name()
	}
	out.MinValue = bound(q.MinValue, q.MinBound)
	out.MaxValue = bound(q.MaxValue, q.MaxBound)
	return out
}

// bound returns the numeric bound, the raw one, or nil so that omitempty
// drops absent bounds.
func bound(v *float64, raw string) any {
	switch {
	case v != nil:
		return *v
	case raw != "":
		return raw
	}
	return nil
}
