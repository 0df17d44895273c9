package question

import "fmt"

// FieldError is a validation failure scoped to one column of a row.
// Field is empty for failures that span several columns.
type FieldError struct {
	Field   string
	Value   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldErr(field, msg string) *FieldError {
	return &FieldError{Field: field, Message: msg}
}

// OptionsFormatError reports an options value that matches none of the
// accepted notations.
type OptionsFormatError struct {
	Reason string
}

func (e *OptionsFormatError) Error() string {
	return "unrecognized options format: " + e.Reason
}
