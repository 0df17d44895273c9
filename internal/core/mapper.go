package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/questionimport/internal/question"
)

// MapRow converts one normalized row into a question. Generic column
// parsing runs first, then the rules of the resolved question type. The
// first failure is returned as a *RowError carrying the row's line.
func MapRow(row RawRow) (question.ParsedQuestion, error) {
	q, err := mapColumns(row)
	if err != nil {
		return question.ParsedQuestion{}, rowErr(row.Line, err)
	}
	if err := question.Validate(&q); err != nil {
		return question.ParsedQuestion{}, rowErr(row.Line, err)
	}
	return q, nil
}

func rowErr(line int, err error) *RowError {
	re := &RowError{Line: line, Message: err.Error()}
	var fe *question.FieldError
	if errors.As(err, &fe) {
		re.Field = fe.Field
	}
	return re
}

func fieldErrorf(field, format string, args ...any) error {
	return &question.FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func mapColumns(row RawRow) (question.ParsedQuestion, error) {
	var q question.ParsedQuestion

	var missing []string
	for _, col := range requiredColumns {
		if row.Get(col) == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return q, &question.FieldError{Message: "missing required fields: " + strings.Join(missing, ", ")}
	}

	q.Text = strings.TrimSpace(row.Get(ColText))
	if n := utf8.RuneCountInString(q.Text); n < question.MinTextLength || n > question.MaxTextLength {
		return q, fieldErrorf(ColText, "must be between %d and %d characters (got %d)",
			question.MinTextLength, question.MaxTextLength, n)
	}

	var err error
	if q.Type, err = question.ParseType(row.Get(ColType)); err != nil {
		return q, err
	}
	if q.Category, err = question.ParseCategory(row.Get(ColCategory)); err != nil {
		return q, err
	}
	if q.Scope, err = question.ParseScope(row.Get(ColScope)); err != nil {
		return q, err
	}

	if v := row.Get(ColIsRequired); v != "" {
		b, err := question.ParseBool(v)
		if err != nil {
			return q, fieldErrorf(ColIsRequired, "%v", err)
		}
		q.IsRequired = &b
	}
	if q.Type == question.Date || q.Type == question.Time {
		// Date and time bounds are not numbers; keep them as written.
		q.MinBound = row.Get(ColMinValue)
		q.MaxBound = row.Get(ColMaxValue)
	} else {
		if q.MinValue, err = parseNumber(ColMinValue, row.Get(ColMinValue)); err != nil {
			return q, err
		}
		if q.MaxValue, err = parseNumber(ColMaxValue, row.Get(ColMaxValue)); err != nil {
			return q, err
		}
	}
	if q.HelpText, err = limitLength(ColHelpText, row.Get(ColHelpText), question.MaxHelpTextLength); err != nil {
		return q, err
	}
	if v := row.Get(ColValidationRegex); v != "" {
		if err := question.CheckPattern(v); err != nil {
			return q, fieldErrorf(ColValidationRegex, "invalid pattern %q: %v", v, err)
		}
		q.ValidationRegex = v
	}
	if v := row.Get(ColOptions); v != "" {
		opts, err := question.ParseOptions(v)
		if err != nil {
			return q, fieldErrorf(ColOptions, "%v (got %q)", err, v)
		}
		q.Options = &opts
	}
	if q.LikertMin, err = parseInteger(ColLikertMin, row.Get(ColLikertMin)); err != nil {
		return q, err
	}
	if q.LikertMax, err = parseInteger(ColLikertMax, row.Get(ColLikertMax)); err != nil {
		return q, err
	}
	if v := row.Get(ColLikertLabels); v != "" {
		labels, err := question.ParseLikertLabels(v)
		if err != nil {
			return q, fieldErrorf(ColLikertLabels, "%v", err)
		}
		q.LikertLabels = labels
	}
	if q.Objective, err = limitLength(ColObjective, row.Get(ColObjective), question.MaxObjectiveLength); err != nil {
		return q, err
	}
	if q.TargetAudience, err = limitLength(ColTargetAudience, row.Get(ColTargetAudience), question.MaxTargetAudienceLength); err != nil {
		return q, err
	}
	q.Origin = row.Get(ColOrigin)

	return q, nil
}

// parseNumber accepts plain decimal or scientific notation; NaN and
// infinities are rejected.
func parseNumber(field, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fieldErrorf(field, "must be a number (got %q)", raw)
	}
	return &f, nil
}

// parseInteger accepts integers and integral decimals such as "5.0", which
// spreadsheets produce for numeric cells. Values must fit the 32-bit column
// they are stored in.
func parseInteger(field, raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 32); err == nil {
		v := int(n)
		return &v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return nil, fieldErrorf(field, "must be an integer (got %q)", raw)
	}
	n := int(f)
	return &n, nil
}

func limitLength(field, raw string, limit int) (string, error) {
	if n := utf8.RuneCountInString(raw); n > limit {
		return "", fieldErrorf(field, "must be at most %d characters (got %d)", limit, n)
	}
	return raw, nil
}
