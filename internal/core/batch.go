package core

import (
	"errors"
	"io"
	"log/slog"

	"github.com/JonMunkholm/questionimport/internal/question"
)

// ProcessRows drains src through the normalizer and mapper. Every row is
// evaluated even after failures; accepted and rejected rows keep file
// order. A source error aborts processing and no result is returned.
func ProcessRows(src RowSource) (*ImportBatchResult, error) {
	result := &ImportBatchResult{
		Accepted: []question.ParsedQuestion{},
		Rejected: []RowRejection{},
	}

	for {
		raw, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		result.RawRows++

		row, ok := NormalizeRow(raw)
		if !ok {
			continue
		}
		result.TotalRowsSeen++

		q, err := MapRow(row)
		if err != nil {
			var re *RowError
			if !errors.As(err, &re) {
				return nil, err
			}
			slog.Debug("row rejected", "line", re.Line, "field", re.Field, "error", re.Message)
			result.Rejected = append(result.Rejected, RowRejection{Line: re.Line, Message: re.Message})
			continue
		}
		result.Accepted = append(result.Accepted, q)
	}

	return result, nil
}

// ParseFile runs the whole pipeline over an in-memory file.
func ParseFile(kind SourceKind, data []byte) (*ImportBatchResult, error) {
	src, err := NewSource(kind, data)
	if err != nil {
		return nil, err
	}
	return ProcessRows(src)
}
