package core

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JonMunkholm/questionimport/internal/logging"
)

// DefaultMaxFileSize is the upload size limit when none is configured.
const DefaultMaxFileSize int64 = 10 << 20

// expectedMimeTypes lists the content types clients normally send per
// extension. A mismatch is logged, never rejected: browsers and operating
// systems disagree too often.
var expectedMimeTypes = map[string][]string{
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/vnd.ms-excel", "application/octet-stream"},
	"xls":  {"application/vnd.ms-excel", "application/octet-stream"},
	"csv":  {"text/csv", "text/plain", "application/csv", "application/vnd.ms-excel"},
}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// KindForExtension maps a file extension to its container kind.
func KindForExtension(ext string) (SourceKind, bool) {
	switch ext {
	case "xlsx", "xls":
		return Spreadsheet, true
	case "csv":
		return DelimitedText, true
	default:
		return 0, false
	}
}

// ValidateUpload checks an upload before any parsing: it must be non-empty,
// within maxSize and carry an extension the entry point accepts. It returns
// the container kind to parse the file as.
func ValidateUpload(ctx context.Context, up FileUpload, entry Entry, maxSize int64) (SourceKind, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	size := int64(len(up.Data))
	if size == 0 {
		return 0, fmt.Errorf("%w: %q has no content", ErrEmptySource, up.Name)
	}
	if size > maxSize {
		return 0, fmt.Errorf("%w: %.2f MB exceeds the %.0f MB limit",
			ErrFileTooLarge, float64(size)/(1<<20), float64(maxSize)/(1<<20))
	}

	ext := Extension(up.Name)
	if !slices.Contains(entry.Extensions, ext) {
		return 0, fmt.Errorf("%w %q: allowed extensions are %s",
			ErrInvalidExtension, ext, strings.Join(entry.Extensions, ", "))
	}
	kind, _ := KindForExtension(ext)

	if up.ContentType != "" {
		mt, _, err := mime.ParseMediaType(up.ContentType)
		if err != nil || !slices.Contains(expectedMimeTypes[ext], mt) {
			logging.FromContext(ctx).Warn("unexpected content type for upload",
				"file", up.Name,
				"extension", ext,
				"content_type", up.ContentType)
		}
	}

	return kind, nil
}

// formatFileSize renders a byte count the way import reports show it.
func formatFileSize(n int) string {
	return fmt.Sprintf("%.2f KB", float64(n)/1024)
}
