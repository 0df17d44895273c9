package core

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Built-in number format IDs that render a serial number as a date or time.
func isBuiltinDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

var fmtLiterals = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

// isCustomDateFormat reports whether a format code contains date or time
// tokens once quoted text, escapes and [color]/[$-locale] sections are
// removed.
func isCustomDateFormat(code string) bool {
	code = strings.ToLower(fmtLiterals.ReplaceAllString(code, ""))
	return strings.ContainsAny(code, "yd") || (strings.Contains(code, "h") && strings.Contains(code, ":"))
}

// spreadsheetSource reads the first sheet of an xlsx workbook. The whole
// workbook is parsed before the first row is returned.
type spreadsheetSource struct {
	sliceSource
	Sheet string
}

func newSpreadsheetSource(data []byte) (*spreadsheetSource, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, sourceErr(Spreadsheet, ErrUnreadableSource, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, sourceErr(Spreadsheet, ErrNoContainerStructure, nil)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, sourceErr(Spreadsheet, ErrUnreadableSource, err)
	}

	headerIdx := -1
	for i, r := range rows {
		if !blankCells(r) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, sourceErr(Spreadsheet, ErrNoContainerStructure, nil)
	}
	layout, found := newHeaderLayout(rows[headerIdx])
	if !found {
		return nil, sourceErr(Spreadsheet, ErrNoContainerStructure, nil)
	}

	dates := newDateCells(f, sheet)
	s := &spreadsheetSource{Sheet: sheet}
	s.hdr = layout.headers()
	for i := headerIdx + 1; i < len(rows); i++ {
		cells := rows[i]
		if blankCells(cells) {
			continue
		}
		for col, v := range cells {
			if d, ok := dates.format(col+1, i+1, v); ok {
				cells[col] = d
			}
		}
		s.rows = append(s.rows, layout.row(i-headerIdx+1, cells))
	}
	if len(s.rows) == 0 {
		return nil, sourceErr(Spreadsheet, ErrEmptyDataset, nil)
	}
	return s, nil
}

func blankCells(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// dateCells turns date-formatted serial numbers into ISO dates. Style
// lookups are cached per style ID.
type dateCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newDateCells(f *excelize.File, sheet string) *dateCells {
	d := &dateCells{f: f, sheet: sheet, styles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *dateCells) format(col, row int, raw string) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || serial < 0 {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	styleID, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil || !d.isDateStyle(styleID) {
		return "", false
	}

	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	switch {
	case serial < 1:
		return t.Format("15:04:05"), true
	case t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0:
		return t.Format("2006-01-02"), true
	default:
		return t.Format("2006-01-02T15:04:05"), true
	}
}

func (d *dateCells) isDateStyle(id int) bool {
	if v, ok := d.styles[id]; ok {
		return v
	}
	isDate := false
	if style, err := d.f.GetStyle(id); err == nil && style != nil {
		isDate = isBuiltinDateFormat(style.NumFmt) ||
			(style.CustomNumFmt != nil && isCustomDateFormat(*style.CustomNumFmt))
	}
	d.styles[id] = isDate
	return isDate
}
