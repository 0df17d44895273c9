package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/questionimport/internal/core"
)

// multipartOverhead is the slack allowed on top of the file size limit for
// form boundaries and the other fields.
const multipartOverhead = 1 << 20

// handleUpload imports a file through the given entry point. The whole
// batch is refused when any row is invalid.
func (s *Server) handleUpload(entry core.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, err := s.readUpload(w, r)
		if err != nil {
			respondError(w, r, err, 0)
			return
		}

		groupID := strings.TrimSpace(r.FormValue("researchGroupId"))
		if groupID != "" {
			if _, err := uuid.Parse(groupID); err != nil {
				respondError(w, r, fmt.Errorf("%w: %q", errInvalidGroupID, groupID), http.StatusBadRequest)
				return
			}
		}

		report, err := s.service.ImportFile(r.Context(), up, core.ImportOptions{
			Entry:           entry,
			DefaultOrigin:   strings.TrimSpace(r.FormValue("defaultOrigin")),
			ResearchGroupID: groupID,
			CreatorID:       creatorID(r),
		})
		if err != nil {
			respondError(w, r, err, 0)
			return
		}

		writeJSON(w, http.StatusCreated, report)
	}
}

// handlePreview parses a file and reports what an import would do.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	result, err := s.service.PreviewFile(r.Context(), up)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleStatus reports import slot usage.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// readUpload reads the multipart "file" field into memory.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (core.FileUpload, error) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.FileUpload{}, fmt.Errorf("%w: request body exceeds %d bytes", core.ErrFileTooLarge, tooLarge.Limit)
		}
		return core.FileUpload{}, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return core.FileUpload{}, errNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return core.FileUpload{}, fmt.Errorf("read upload: %w", err)
	}

	return core.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
