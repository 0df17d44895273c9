package question

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate checks the invariants of a question: the text bounds, the
// shape of the option list and the rules of its type. It returns the
// first violation as a *FieldError.
func Validate(q *ParsedQuestion) error {
	if n := utf8.RuneCountInString(q.Text); n < MinTextLength || n > MaxTextLength {
		return fieldErr("text", fmt.Sprintf("must be between %d and %d characters (got %d)", MinTextLength, MaxTextLength, n))
	}
	if q.Type == nil {
		return fieldErr("type", "is required")
	}
	if q.Options != nil {
		if err := checkChoices(q.Options.Choices); err != nil {
			return err
		}
	}
	return q.Type.checkFields(q)
}

// checkChoices rejects blank entries and case-insensitive duplicates.
func checkChoices(choices []string) error {
	seen := make(map[string]int, len(choices))
	for i, c := range choices {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" {
			return fieldErr("options", fmt.Sprintf("choice %d is empty", i+1))
		}
		if j, dup := seen[key]; dup {
			return fieldErr("options", fmt.Sprintf("duplicate choice %q (same as choice %d)", c, j+1))
		}
		seen[key] = i
	}
	return nil
}
