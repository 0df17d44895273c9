package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseOptions reads the options column. Accepted notations:
//
//	{"choices":["A","B"]}   JSON object with a choices array
//	["A","B"]               JSON array
//	A|B|C                   pipe-separated list, blank items dropped
//
// Anything else is tried as generic JSON and must decode to an array.
// Failures are returned as *OptionsFormatError.
func ParseOptions(raw string) (Options, error) {
	s := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(s, "{"):
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			return Options{}, &OptionsFormatError{Reason: "invalid JSON object: " + err.Error()}
		}
		arr, ok := obj["choices"]
		if !ok || !isJSONArray(arr) {
			return Options{}, &OptionsFormatError{Reason: `JSON object must contain a "choices" array`}
		}
		return decodeChoices(arr)

	case strings.HasPrefix(s, "["):
		if !json.Valid([]byte(s)) {
			return Options{}, &OptionsFormatError{Reason: "invalid JSON array"}
		}
		return decodeChoices(json.RawMessage(s))

	case strings.Contains(s, "|"):
		var choices []string
		for _, part := range strings.Split(s, "|") {
			if part = strings.TrimSpace(part); part != "" {
				choices = append(choices, part)
			}
		}
		if len(choices) == 0 {
			return Options{}, &OptionsFormatError{Reason: "no choices found in pipe-separated list"}
		}
		return Options{Choices: choices}, nil
	}

	if json.Valid([]byte(s)) && isJSONArray(json.RawMessage(s)) {
		return decodeChoices(json.RawMessage(s))
	}
	return Options{}, &OptionsFormatError{Reason: `use {"choices":["A","B"]}, ["A","B"] or A|B|C`}
}

func isJSONArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

// decodeChoices accepts string, number and boolean items; numbers and
// booleans are kept in their JSON spelling.
func decodeChoices(arr json.RawMessage) (Options, error) {
	var items []any
	dec := json.NewDecoder(bytes.NewReader(arr))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return Options{}, &OptionsFormatError{Reason: "invalid JSON array: " + err.Error()}
	}

	choices := make([]string, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			choices = append(choices, strings.TrimSpace(v))
		case json.Number:
			choices = append(choices, v.String())
		case bool:
			choices = append(choices, strconv.FormatBool(v))
		default:
			return Options{}, &OptionsFormatError{Reason: fmt.Sprintf("choice %d must be a string", i+1)}
		}
	}
	return Options{Choices: choices}, nil
}

// ParseLikertLabels reads a JSON object mapping scale points to labels.
// A JSON null means no labels and returns a nil map.
func ParseLikertLabels(raw string) (map[string]string, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
		return nil, fmt.Errorf("must be a valid JSON object: %w", err)
	}
	if obj == nil {
		return nil, nil
	}
	labels := make(map[string]string, len(obj))
	for k, v := range obj {
		switch l := v.(type) {
		case string:
			labels[k] = l
		case float64, bool:
			labels[k] = fmt.Sprint(l)
		default:
			return nil, fmt.Errorf("label for %q must be a string", k)
		}
	}
	return labels, nil
}
