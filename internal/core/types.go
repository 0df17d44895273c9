package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/questionimport/internal/question"
)

// SourceKind is the container format of an uploaded file.
type SourceKind int

const (
	Spreadsheet SourceKind = iota + 1
	DelimitedText
)

func (k SourceKind) String() string {
	switch k {
	case Spreadsheet:
		return "spreadsheet"
	case DelimitedText:
		return "delimited-text"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Column names of the import file, in template order.
const (
	ColText            = "text"
	ColType            = "type"
	ColCategory        = "category"
	ColScope           = "scope"
	ColIsRequired      = "isRequired"
	ColMinValue        = "minValue"
	ColMaxValue        = "maxValue"
	ColHelpText        = "helpText"
	ColValidationRegex = "validationRegex"
	ColOptions         = "options"
	ColLikertMin       = "likertMin"
	ColLikertMax       = "likertMax"
	ColLikertLabels    = "likertLabels"
	ColObjective       = "objective"
	ColTargetAudience  = "targetAudience"
	ColOrigin          = "origin"
)

// Columns is the canonical column order shared by imports and templates.
var Columns = []string{
	ColText, ColType, ColCategory, ColScope,
	ColIsRequired, ColMinValue, ColMaxValue, ColHelpText, ColValidationRegex,
	ColOptions, ColLikertMin, ColLikertMax, ColLikertLabels,
	ColObjective, ColTargetAudience, ColOrigin,
}

var requiredColumns = []string{ColText, ColType, ColCategory, ColScope}

// canonicalColumn maps a header to its canonical spelling so "LikertMin"
// and "likertmin" both address ColLikertMin. Unknown headers pass through.
func canonicalColumn(header string) string {
	for _, c := range Columns {
		if strings.EqualFold(c, header) {
			return c
		}
	}
	return header
}

// RawRow is one data row keyed by column name. Every header present in the
// file has a key; missing cells are empty strings.
type RawRow struct {
	// Line is the 1-based position in the file with the header as line 1.
	Line   int
	Values map[string]string
}

// Get returns the value of a column, or "" when absent.
func (r RawRow) Get(col string) string {
	return r.Values[col]
}

// RowRejection is the outcome of a row that failed validation.
type RowRejection struct {
	Line    int    `json:"line" yaml:"line"`
	Message string `json:"message" yaml:"message"`
}

func (r RowRejection) String() string {
	return fmt.Sprintf("line %d: %s", r.Line, r.Message)
}

// ImportBatchResult is the outcome of running every row of one file
// through the pipeline. It is never modified after ProcessRows returns.
type ImportBatchResult struct {
	Accepted []question.ParsedQuestion `json:"accepted" yaml:"accepted"`
	Rejected []RowRejection            `json:"rejected" yaml:"rejected"`

	// TotalRowsSeen counts data rows that were not blank.
	TotalRowsSeen int `json:"totalRowsSeen" yaml:"totalRowsSeen"`

	// RawRows counts every data row delivered by the source, blank or not.
	RawRows int `json:"rawRows" yaml:"rawRows"`
}

// Err returns the batch-level verdict: a *BatchRejectedError when any row
// was rejected, ErrNoValidRows when the file held no questions at all, nil
// when the batch may be imported.
func (r *ImportBatchResult) Err() error {
	if len(r.Rejected) > 0 {
		errs := make([]string, len(r.Rejected))
		for i, rej := range r.Rejected {
			errs[i] = rej.String()
		}
		return &BatchRejectedError{
			Message:      fmt.Sprintf("found %d validation errors; no questions were imported", len(r.Rejected)),
			Errors:       errs,
			SuccessCount: len(r.Accepted),
			TotalRows:    r.TotalRowsSeen,
		}
	}
	if len(r.Accepted) == 0 {
		return ErrNoValidRows
	}
	return nil
}

// FileUpload is an uploaded file held in memory.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Entry describes an upload endpoint: which extensions it accepts.
type Entry struct {
	Name       string
	Extensions []string
}

var (
	SpreadsheetEntry = Entry{Name: "excel", Extensions: []string{"xlsx", "xls"}}
	CSVEntry         = Entry{Name: "csv", Extensions: []string{"csv"}}
	AnyEntry         = Entry{Name: "any", Extensions: []string{"xlsx", "xls", "csv"}}
)

// ImportOptions carries caller metadata for one import.
type ImportOptions struct {
	Entry Entry

	// DefaultOrigin applies to rows without an origin; when empty the
	// configured origin for the file kind is used.
	DefaultOrigin   string
	ResearchGroupID string
	CreatorID       string
}

// ImportReport is returned after a batch was persisted.
type ImportReport struct {
	Message     string    `json:"message" yaml:"message"`
	ImportID    string    `json:"importId,omitempty" yaml:"importId,omitempty"`
	FileName    string    `json:"fileName" yaml:"fileName"`
	FileSize    string    `json:"fileSize" yaml:"fileSize"`
	ProcessedAt time.Time `json:"processedAt" yaml:"processedAt"`
	Imported    int       `json:"imported" yaml:"imported"`
	TotalRows   int       `json:"totalRows" yaml:"totalRows"`
	QuestionIDs []string  `json:"questionIds" yaml:"questionIds"`
}

// StoreMetadata accompanies a batch handed to the question store.
type StoreMetadata struct {
	CreatorID       string
	DefaultOrigin   string
	ResearchGroupID string
}

// StoreResult is what the question store reports back.
type StoreResult struct {
	ImportID    string
	Imported    int
	QuestionIDs []string
}

// ImportRecord describes one stored import.
type ImportRecord struct {
	ID              string    `json:"id" yaml:"id"`
	CreatorID       string    `json:"creatorId,omitempty" yaml:"creatorId,omitempty"`
	Origin          string    `json:"origin" yaml:"origin"`
	ResearchGroupID string    `json:"researchGroupId,omitempty" yaml:"researchGroupId,omitempty"`
	QuestionCount   int       `json:"questionCount" yaml:"questionCount"`
	CreatedAt       time.Time `json:"createdAt" yaml:"createdAt"`
}

// QuestionStore persists a fully validated batch. Implementations must
// store all questions or none. GetImport returns an error wrapping
// ErrImportNotFound for unknown ids.
type QuestionStore interface {
	ImportQuestions(ctx context.Context, questions []question.ParsedQuestion, meta StoreMetadata) (StoreResult, error)
	GetImport(ctx context.Context, id string) (ImportRecord, error)
}
