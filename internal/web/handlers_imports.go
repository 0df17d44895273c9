package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleGetImport returns the stored record of one import.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, r, fmt.Errorf("%w: %q", errInvalidImportID, id), http.StatusBadRequest)
		return
	}

	rec, err := s.service.GetImport(r.Context(), id)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
