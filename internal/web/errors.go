package web

// errors.go turns handler errors into JSON responses.
//
// Every error is logged with the request logger (which carries the request
// ID) and answered with the catalogue entry from core.MapError. A rejected
// batch is the exception: its body lists every failing line so the client
// can fix the file in one pass.

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/questionimport/internal/core"
	"github.com/JonMunkholm/questionimport/internal/logging"
)

var (
	errNoFile          = errors.New("no file provided")
	errRateLimited     = errors.New("rate limit exceeded")
	errInvalidGroupID  = errors.New("invalid researchGroupId")
	errInvalidImportID = errors.New("invalid import id")
)

// ErrorResponse is the JSON body of every non-batch error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form. When status is 0
// it is derived from the error.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	userMsg := core.MapError(err)

	log := logging.FromContext(r.Context())
	log.Log(r.Context(), logLevel(err, status), "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	var batch *core.BatchRejectedError
	if errors.As(err, &batch) {
		writeJSON(w, status, batch)
		return
	}
	respondErrorJSON(w, userMsg, status)
}

// logLevel follows the status; errors without a catalogue entry are
// always logged as errors.
func logLevel(err error, status int) slog.Level {
	if !core.IsUserFacing(err) {
		return slog.LevelError
	}
	return logging.LevelForStatus(status)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor picks the HTTP status for an import failure.
func statusFor(err error) int {
	var batch *core.BatchRejectedError
	var source *core.SourceError
	var upstream *core.UpstreamError
	switch {
	case errors.As(err, &batch), errors.Is(err, core.ErrNoValidRows):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidExtension):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &source), errors.Is(err, core.ErrEmptySource):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests
	case errors.As(err, &upstream):
		switch upstream.Kind {
		case core.UpstreamDuplicate:
			return http.StatusConflict
		case core.UpstreamForeignKey:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusBadGateway
		}
	case errors.Is(err, core.ErrImportNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNoFile), errors.Is(err, errInvalidGroupID), errors.Is(err, errInvalidImportID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
