package core

import (
	"errors"
	"fmt"
)

// Source failures. Each is wrapped in a *SourceError and aborts the import.
var (
	ErrEmptySource          = errors.New("empty file")
	ErrNoContainerStructure = errors.New("no readable sheet or header")
	ErrEmptyDataset         = errors.New("file has no data rows")
	ErrUnreadableSource     = errors.New("unreadable file")
)

// Upload checks run before any parsing.
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidExtension = errors.New("invalid extension")
)

// ErrImportNotFound is returned by QuestionStore.GetImport for unknown ids.
var ErrImportNotFound = errors.New("import not found")

// ErrNoValidRows is returned when a file had no rejected rows but also no
// questions to import.
var ErrNoValidRows = errors.New("no valid questions found in file")

// SourceError reports an input that could not be read as a table.
type SourceError struct {
	Kind SourceKind
	Err  error // one of the ErrEmptySource family, possibly wrapping a cause
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func sourceErr(kind SourceKind, sentinel error, cause error) *SourceError {
	if cause == nil {
		return &SourceError{Kind: kind, Err: sentinel}
	}
	return &SourceError{Kind: kind, Err: fmt.Errorf("%w: %v", sentinel, cause)}
}

// RowError is a validation failure of a single row.
type RowError struct {
	Line    int
	Field   string // empty when several fields are involved
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// BatchRejectedError refuses a whole batch because at least one row failed.
// Errors lists every rejected row, in file order.
type BatchRejectedError struct {
	Message      string   `json:"message"`
	Errors       []string `json:"errors"`
	SuccessCount int      `json:"successCount"`
	TotalRows    int      `json:"totalRows"`
}

func (e *BatchRejectedError) Error() string {
	return e.Message
}

// UpstreamKind classifies a question store failure.
type UpstreamKind int

const (
	UpstreamOther UpstreamKind = iota
	UpstreamDuplicate
	UpstreamForeignKey
)

func (k UpstreamKind) String() string {
	switch k {
	case UpstreamDuplicate:
		return "duplicate key"
	case UpstreamForeignKey:
		return "foreign key constraint"
	default:
		return "store failure"
	}
}

// UpstreamError is a question store rejection of an already validated
// batch. It is surfaced as is and never retried.
type UpstreamError struct {
	Kind       UpstreamKind
	Constraint string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("question store: %s (%s): %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("question store: %s: %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
