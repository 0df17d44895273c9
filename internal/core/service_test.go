package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/questionimport/internal/config"
	"github.com/JonMunkholm/questionimport/internal/question"
)

type fakeStore struct {
	calls     int
	questions []question.ParsedQuestion
	meta      StoreMetadata
	err       error
	imports   map[string]ImportRecord
}

func (s *fakeStore) ImportQuestions(_ context.Context, qs []question.ParsedQuestion, meta StoreMetadata) (StoreResult, error) {
	s.calls++
	if s.err != nil {
		return StoreResult{}, s.err
	}
	s.questions = qs
	s.meta = meta
	ids := make([]string, len(qs))
	for i := range qs {
		ids[i] = fmt.Sprintf("q-%d", i+1)
	}
	return StoreResult{Imported: len(qs), QuestionIDs: ids}, nil
}

func (s *fakeStore) GetImport(_ context.Context, id string) (ImportRecord, error) {
	if s.err != nil {
		return ImportRecord{}, s.err
	}
	rec, ok := s.imports[id]
	if !ok {
		return ImportRecord{}, fmt.Errorf("get import %s: %w", id, ErrImportNotFound)
	}
	return rec, nil
}

const validCSV = "text,type,category,scope,origin\n" +
	"Qual é a sua idade atual?,NUMERICA,DEMOGRAFICA,LOCAL,\n" +
	"Você recomendaria o serviço?,SIM_NAO,COMPORTAMENTAL,LOCAL,MANUAL\n"

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Second,
		},
		Import: config.ImportConfig{
			SpreadsheetOrigin: "EXCEL_IMPORT",
			CSVOrigin:         "CSV_IMPORT",
		},
	}
}

func TestService_ImportFile(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, testConfig())

	report, err := svc.ImportFile(context.Background(),
		FileUpload{Name: "perguntas.csv", ContentType: "text/csv", Data: []byte(validCSV)},
		ImportOptions{Entry: CSVEntry, ResearchGroupID: "group-1", CreatorID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, "2 questions imported successfully", report.Message)
	assert.Equal(t, "perguntas.csv", report.FileName)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, []string{"q-1", "q-2"}, report.QuestionIDs)

	assert.Equal(t, StoreMetadata{CreatorID: "user-1", DefaultOrigin: "CSV_IMPORT", ResearchGroupID: "group-1"}, store.meta)
	require.Len(t, store.questions, 2)
	assert.Equal(t, "group-1", store.questions[0].ResearchGroupID)
	assert.Equal(t, "", store.questions[0].Origin)
	assert.Equal(t, "MANUAL", store.questions[1].Origin)
}

func TestService_ImportFile_ExplicitOrigin(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, testConfig())

	_, err := svc.ImportFile(context.Background(),
		FileUpload{Name: "q.csv", Data: []byte(validCSV)},
		ImportOptions{Entry: CSVEntry, DefaultOrigin: "SEMINARIO"})
	require.NoError(t, err)
	assert.Equal(t, "SEMINARIO", store.meta.DefaultOrigin)
}

func TestService_ImportFile_RejectedBatchNeverReachesStore(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, testConfig())

	data := validCSV + "curta,SIM_NAO,DEMOGRAFICA,LOCAL,\n"
	_, err := svc.ImportFile(context.Background(),
		FileUpload{Name: "q.csv", Data: []byte(data)},
		ImportOptions{Entry: CSVEntry})

	var batch *BatchRejectedError
	require.ErrorAs(t, err, &batch)
	assert.Equal(t, 2, batch.SuccessCount)
	assert.Equal(t, 3, batch.TotalRows)
	assert.Zero(t, store.calls)
}

func TestService_ImportFile_Failures(t *testing.T) {
	tests := []struct {
		name    string
		upload  FileUpload
		entry   Entry
		wantErr error
	}{
		{"wrong extension", FileUpload{Name: "q.xlsx", Data: []byte(validCSV)}, CSVEntry, ErrInvalidExtension},
		{"empty", FileUpload{Name: "q.csv"}, CSVEntry, ErrEmptySource},
		{"header only", FileUpload{Name: "q.csv", Data: []byte("text,type\n")}, CSVEntry, ErrEmptyDataset},
		{"only blank rows", FileUpload{Name: "q.csv", Data: []byte("text,type\n,\n")}, CSVEntry, ErrNoValidRows},
		{"corrupt workbook", FileUpload{Name: "q.xlsx", Data: []byte("PK not really")}, SpreadsheetEntry, ErrUnreadableSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := NewService(store, testConfig())
			_, err := svc.ImportFile(context.Background(), tt.upload, ImportOptions{Entry: tt.entry})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, store.calls)
		})
	}
}

func TestService_ImportFile_StoreFailure(t *testing.T) {
	t.Run("untyped errors are wrapped", func(t *testing.T) {
		svc := NewService(&fakeStore{err: errors.New("connection reset by peer")}, testConfig())
		_, err := svc.ImportFile(context.Background(),
			FileUpload{Name: "q.csv", Data: []byte(validCSV)}, ImportOptions{Entry: CSVEntry})

		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, UpstreamOther, upstream.Kind)
	})

	t.Run("typed errors pass through", func(t *testing.T) {
		dup := &UpstreamError{Kind: UpstreamDuplicate, Constraint: "questions_text_key", Err: errors.New("23505")}
		svc := NewService(&fakeStore{err: dup}, testConfig())
		_, err := svc.ImportFile(context.Background(),
			FileUpload{Name: "q.csv", Data: []byte(validCSV)}, ImportOptions{Entry: CSVEntry})
		assert.Same(t, dup, err)
	})
}

func TestService_GetImport(t *testing.T) {
	known := ImportRecord{ID: "imp-1", Origin: "CSV_IMPORT", QuestionCount: 2}
	dup := &UpstreamError{Kind: UpstreamDuplicate, Err: errors.New("23505")}

	tests := []struct {
		name     string
		store    *fakeStore
		id       string
		want     ImportRecord
		wantErr  error
		upstream bool
	}{
		{"found", &fakeStore{imports: map[string]ImportRecord{"imp-1": known}}, "imp-1", known, nil, false},
		{"not found", &fakeStore{}, "imp-2", ImportRecord{}, ErrImportNotFound, false},
		{"untyped failure is wrapped", &fakeStore{err: errors.New("connection refused")}, "imp-1", ImportRecord{}, nil, true},
		{"typed failure passes through", &fakeStore{err: dup}, "imp-1", ImportRecord{}, dup, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.store, testConfig())
			rec, err := svc.GetImport(context.Background(), tt.id)
			assert.Equal(t, tt.want, rec)
			switch {
			case tt.upstream:
				var upstream *UpstreamError
				require.ErrorAs(t, err, &upstream)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_ImportFile_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxConcurrent = 1
	cfg.Upload.MaxWaitTime = 20 * time.Millisecond
	svc := NewService(&fakeStore{}, cfg)

	require.True(t, svc.limiter.TryAcquire())
	defer svc.limiter.Release()

	_, err := svc.ImportFile(context.Background(),
		FileUpload{Name: "q.csv", Data: []byte(validCSV)}, ImportOptions{Entry: CSVEntry})
	assert.ErrorIs(t, err, ErrTooManyImports)
	assert.Equal(t, 1, svc.LimiterStatus().Active)
}

func TestService_PreviewFile(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil)

	data := validCSV + "curta,SIM_NAO,DEMOGRAFICA,LOCAL,\n"
	result, err := svc.PreviewFile(context.Background(), FileUpload{Name: "q.csv", Data: []byte(data)})
	require.NoError(t, err)
	assert.Len(t, result.Accepted, 2)
	assert.Len(t, result.Rejected, 1)
	assert.Zero(t, store.calls)
	assert.Equal(t, DefaultMaxFileSize, svc.MaxFileSize())
}

func TestService_WaitForImports(t *testing.T) {
	svc := NewService(&fakeStore{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, svc.WaitForImports(ctx))
}
