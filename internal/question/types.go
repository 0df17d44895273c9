package question

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// Type is the closed set of question types. Every variant owns the rules
// that relate the optional fields of a question to its type; the unexported
// method keeps the set closed to this package.
type Type interface {
	// Name is the wire value, e.g. "NUMERICA".
	Name() string

	checkFields(q *ParsedQuestion) error
}

type (
	numericType        struct{}
	multipleChoiceType struct{}
	likertType         struct{}
	yesNoType          struct{}
	openTextType       struct{}
	dateType           struct{}
	timeType           struct{}
)

// The seven question types.
var (
	Numeric        Type = numericType{}
	MultipleChoice Type = multipleChoiceType{}
	Likert         Type = likertType{}
	YesNo          Type = yesNoType{}
	OpenText       Type = openTextType{}
	Date           Type = dateType{}
	Time           Type = timeType{}
)

var allTypes = []Type{Numeric, MultipleChoice, Likert, YesNo, OpenText, Date, Time}

// Types returns every question type in canonical order.
func Types() []Type {
	return append([]Type(nil), allTypes...)
}

func (numericType) Name() string        { return "NUMERICA" }
func (multipleChoiceType) Name() string { return "MULTIPLA_ESCOLHA" }
func (likertType) Name() string         { return "ESCALA_LIKERT" }
func (yesNoType) Name() string          { return "SIM_NAO" }
func (openTextType) Name() string       { return "TEXTO_ABERTO" }
func (dateType) Name() string           { return "DATA" }
func (timeType) Name() string           { return "HORA" }

func (numericType) checkFields(q *ParsedQuestion) error {
	if q.MinValue != nil && !isFinite(*q.MinValue) {
		return fieldErr("minValue", "must be a finite number")
	}
	if q.MaxValue != nil && !isFinite(*q.MaxValue) {
		return fieldErr("maxValue", "must be a finite number")
	}
	if q.MinValue != nil && q.MaxValue != nil && *q.MinValue > *q.MaxValue {
		return fieldErr("minValue", fmt.Sprintf("value %s must not exceed maxValue %s",
			formatFloat(*q.MinValue), formatFloat(*q.MaxValue)))
	}
	return nil
}

func (multipleChoiceType) checkFields(q *ParsedQuestion) error {
	if q.Options == nil || len(q.Options.Choices) == 0 {
		return fieldErr("options", "multiple choice questions require a list of choices")
	}
	n := len(q.Options.Choices)
	if n < MinChoices {
		return fieldErr("options", fmt.Sprintf("multiple choice questions need at least %d options (got %d)", MinChoices, n))
	}
	if n > MaxChoices {
		return fieldErr("options", fmt.Sprintf("multiple choice questions allow at most %d options (got %d)", MaxChoices, n))
	}
	return nil
}

func (likertType) checkFields(q *ParsedQuestion) error {
	if q.LikertMin == nil || q.LikertMax == nil {
		return fieldErr("likertMin", "Likert scale questions require both likertMin and likertMax")
	}
	lo, hi := *q.LikertMin, *q.LikertMax
	if lo >= hi {
		return fieldErr("likertMin", fmt.Sprintf("value %d must be less than likertMax %d", lo, hi))
	}
	// lo < hi, so the unsigned difference is exact even at the int limits.
	if span := uint64(hi) - uint64(lo); span > MaxLikertRange {
		return fieldErr("likertMax", fmt.Sprintf("Likert range must be between 1 and %d (got %d)", MaxLikertRange, span))
	}
	if q.LikertLabels != nil {
		_, hasLo := q.LikertLabel(lo)
		_, hasHi := q.LikertLabel(hi)
		if !hasLo || !hasHi {
			return fieldErr("likertLabels", fmt.Sprintf("must contain labels for both the minimum (%d) and maximum (%d) values", lo, hi))
		}
	}
	return nil
}

func (yesNoType) checkFields(q *ParsedQuestion) error {
	if q.Options != nil {
		return fieldErr("options", "yes/no questions must not define options")
	}
	if q.LikertMin != nil || q.LikertMax != nil {
		return fieldErr("likertMin", "yes/no questions must not define Likert bounds")
	}
	return nil
}

func (openTextType) checkFields(q *ParsedQuestion) error {
	if q.ValidationRegex == "" {
		return nil
	}
	if err := CheckPattern(q.ValidationRegex); err != nil {
		return fieldErr("validationRegex", fmt.Sprintf("invalid pattern %q: %v", q.ValidationRegex, err))
	}
	return nil
}

// CheckPattern reports whether p compiles as a JavaScript regular
// expression, the dialect survey clients evaluate answers with.
func CheckPattern(p string) error {
	_, err := regexp2.Compile(p, regexp2.ECMAScript)
	return err
}

// Date and time bounds are kept as given; their meaning is left to the
// survey runtime.
func (dateType) checkFields(*ParsedQuestion) error { return nil }

func (timeType) checkFields(*ParsedQuestion) error { return nil }

// ParseType resolves a raw column value to a question type.
func ParseType(raw string) (Type, error) {
	key := normalizeEnum(raw)
	for _, t := range allTypes {
		if t.Name() == key {
			return t, nil
		}
	}
	names := make([]string, len(allTypes))
	for i, t := range allTypes {
		names[i] = t.Name()
	}
	return nil, invalidEnum("type", raw, names)
}

// normalizeEnum upper-cases and replaces spaces with underscores.
func normalizeEnum(raw string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(raw)), " ", "_")
}

func invalidEnum(field, raw string, valid []string) error {
	return &FieldError{
		Field:   field,
		Value:   raw,
		Message: fmt.Sprintf("invalid value %q; valid values: %s", raw, strings.Join(valid, ", ")),
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
