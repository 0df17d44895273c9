package core

import (
	"fmt"
	"io"
	"strings"
)

// RowSource yields the data rows of one file in order. Next returns io.EOF
// after the last row; any other error is a *SourceError and ends the
// import. A RowSource cannot be restarted.
type RowSource interface {
	Next() (RawRow, error)

	// Headers returns the trimmed header names in file order.
	Headers() []string
}

// NewSource opens data as the given container kind. It fails fast when the
// file is empty, has no header, or has a header but no data rows.
func NewSource(kind SourceKind, data []byte) (RowSource, error) {
	if len(data) == 0 {
		return nil, sourceErr(kind, ErrEmptySource, nil)
	}

	switch kind {
	case Spreadsheet:
		s, err := newSpreadsheetSource(data)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DelimitedText:
		s, err := newDelimitedSource(data)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported source kind %s", kind)
	}
}

// headerLayout resolves the trimmed, canonical header names of a file.
// Blank header cells are skipped: their column index maps to "".
type headerLayout struct {
	names []string
}

func newHeaderLayout(cells []string) (headerLayout, bool) {
	var h headerLayout
	found := false
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		name := canonicalColumn(strings.TrimSpace(c))
		if name == "" || seen[name] {
			h.names = append(h.names, "")
			continue
		}
		seen[name] = true
		h.names = append(h.names, name)
		found = true
	}
	return h, found
}

func (h headerLayout) headers() []string {
	out := make([]string, 0, len(h.names))
	for _, n := range h.names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// row builds a RawRow; cells beyond the header are ignored and missing
// cells become "".
func (h headerLayout) row(line int, cells []string) RawRow {
	values := make(map[string]string, len(h.names))
	for i, name := range h.names {
		if name == "" {
			continue
		}
		if i < len(cells) {
			values[name] = strings.TrimSpace(cells[i])
		} else {
			values[name] = ""
		}
	}
	return RawRow{Line: line, Values: values}
}

// sliceSource serves rows that were fully materialized up front.
type sliceSource struct {
	hdr  []string
	rows []RawRow
	pos  int
}

func (s *sliceSource) Next() (RawRow, error) {
	if s.pos >= len(s.rows) {
		return RawRow{}, io.EOF
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}

func (s *sliceSource) Headers() []string { return s.hdr }
