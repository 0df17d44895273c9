package core

import "strings"

// CleanCell trims whitespace and unwraps Excel's ="..." text guard, which
// spreadsheet programs emit to stop values from being reinterpreted.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// NormalizeRow cleans every value of row. It returns false when all values
// are blank; such rows are skipped without being reported.
func NormalizeRow(row RawRow) (RawRow, bool) {
	values := make(map[string]string, len(row.Values))
	blank := true
	for k, v := range row.Values {
		v = CleanCell(v)
		if v != "" {
			blank = false
		}
		values[k] = v
	}
	return RawRow{Line: row.Line, Values: values}, !blank
}
