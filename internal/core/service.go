package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/questionimport/internal/config"
	"github.com/JonMunkholm/questionimport/internal/logging"
)

// Service runs uploads through validation, parsing and persistence.
type Service struct {
	store   QuestionStore
	limiter *ImportLimiter

	maxFileSize   int64
	importTimeout time.Duration
	origins       map[SourceKind]string
}

// NewService creates a Service persisting into store. cfg may be nil, in
// which case package defaults apply.
func NewService(store QuestionStore, cfg *config.Config) *Service {
	s := &Service{
		store:         store,
		maxFileSize:   DefaultMaxFileSize,
		importTimeout: 2 * time.Minute,
		origins: map[SourceKind]string{
			Spreadsheet:   "EXCEL_IMPORT",
			DelimitedText: "CSV_IMPORT",
		},
	}

	var maxConcurrent int
	var maxWait time.Duration
	if cfg != nil {
		if cfg.Upload.MaxFileSize > 0 {
			s.maxFileSize = cfg.Upload.MaxFileSize
		}
		if cfg.Upload.Timeout > 0 {
			s.importTimeout = cfg.Upload.Timeout
		}
		if cfg.Import.SpreadsheetOrigin != "" {
			s.origins[Spreadsheet] = cfg.Import.SpreadsheetOrigin
		}
		if cfg.Import.CSVOrigin != "" {
			s.origins[DelimitedText] = cfg.Import.CSVOrigin
		}
		maxConcurrent = cfg.Upload.MaxConcurrent
		maxWait = cfg.Upload.MaxWaitTime
	}
	s.limiter = NewImportLimiter(maxConcurrent, maxWait)

	return s
}

// MaxFileSize is the largest upload the service accepts.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// ImportFile validates, parses and persists one uploaded file. Nothing is
// persisted unless every row of the file is valid.
func (s *Service) ImportFile(ctx context.Context, up FileUpload, opts ImportOptions) (*ImportReport, error) {
	log := logging.WithFields(ctx, "file", up.Name, "entry", opts.Entry.Name)

	entry := opts.Entry
	if len(entry.Extensions) == 0 {
		entry = AnyEntry
	}
	kind, err := ValidateUpload(ctx, up, entry, s.maxFileSize)
	if err != nil {
		log.Info("upload refused", "error", err)
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("no import slot available", "error", err)
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	result, err := ParseFile(kind, up.Data)
	if err != nil {
		log.Info("file could not be read", "kind", kind, "error", err)
		return nil, err
	}
	if err := result.Err(); err != nil {
		log.Info("batch rejected",
			"accepted", len(result.Accepted),
			"rejected", len(result.Rejected),
			"rows", result.TotalRowsSeen)
		return nil, err
	}

	if opts.ResearchGroupID != "" {
		for i := range result.Accepted {
			result.Accepted[i].ResearchGroupID = opts.ResearchGroupID
		}
	}

	origin := opts.DefaultOrigin
	if origin == "" {
		origin = s.origins[kind]
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	stored, err := s.store.ImportQuestions(storeCtx, result.Accepted, StoreMetadata{
		CreatorID:       opts.CreatorID,
		DefaultOrigin:   origin,
		ResearchGroupID: opts.ResearchGroupID,
	})
	if err != nil {
		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			err = &UpstreamError{Kind: UpstreamOther, Err: err}
		}
		log.Error("question store rejected batch", "questions", len(result.Accepted), "error", err)
		return nil, err
	}

	log.Info("questions imported",
		"import_id", stored.ImportID,
		"imported", stored.Imported,
		"rows", result.TotalRowsSeen,
		"duration", time.Since(start))

	return &ImportReport{
		Message:     fmt.Sprintf("%d questions imported successfully", stored.Imported),
		ImportID:    stored.ImportID,
		FileName:    up.Name,
		FileSize:    formatFileSize(len(up.Data)),
		ProcessedAt: time.Now().UTC(),
		Imported:    stored.Imported,
		TotalRows:   result.TotalRowsSeen,
		QuestionIDs: stored.QuestionIDs,
	}, nil
}

// PreviewFile parses an upload without persisting anything. Row rejections
// are part of the result, not an error.
func (s *Service) PreviewFile(ctx context.Context, up FileUpload) (*ImportBatchResult, error) {
	kind, err := ValidateUpload(ctx, up, AnyEntry, s.maxFileSize)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	return ParseFile(kind, up.Data)
}

// GetImport returns the stored record of a previous import.
func (s *Service) GetImport(ctx context.Context, id string) (ImportRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	rec, err := s.store.GetImport(ctx, id)
	if err == nil || errors.Is(err, ErrImportNotFound) {
		return rec, err
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		err = &UpstreamError{Kind: UpstreamOther, Err: err}
	}
	logging.WithFields(ctx, "import_id", id).Error("import lookup failed", "error", err)
	return ImportRecord{}, err
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
