package web

import (
	"net/http"

	"github.com/JonMunkholm/questionimport/internal/core"
)

const (
	spreadsheetTemplateName = "template_questoes.xlsx"
	csvTemplateName         = "template_questoes.csv"
)

// handleSpreadsheetTemplate serves the import template workbook.
func (s *Server) handleSpreadsheetTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := core.SpreadsheetTemplate()
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+spreadsheetTemplateName)
	_, _ = w.Write(data)
}

// handleCSVTemplate serves the CSV import template with a UTF-8 BOM so
// spreadsheet programs open accented text correctly.
func (s *Server) handleCSVTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+csvTemplateName)
	_, _ = w.Write([]byte("\ufeff" + core.CSVTemplate()))
}
