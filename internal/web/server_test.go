package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/questionimport/internal/config"
	"github.com/JonMunkholm/questionimport/internal/core"
	"github.com/JonMunkholm/questionimport/internal/question"
)

type memoryStore struct {
	calls     int
	meta      core.StoreMetadata
	got       []question.ParsedQuestion
	err       error
	imports   map[string]core.ImportRecord
	lookupErr error
}

func (m *memoryStore) ImportQuestions(_ context.Context, qs []question.ParsedQuestion, meta core.StoreMetadata) (core.StoreResult, error) {
	m.calls++
	if m.err != nil {
		return core.StoreResult{}, m.err
	}
	m.meta = meta
	m.got = qs
	ids := make([]string, len(qs))
	for i := range qs {
		ids[i] = uuid.NewString()
	}
	importID := uuid.NewString()
	if m.imports == nil {
		m.imports = make(map[string]core.ImportRecord)
	}
	m.imports[importID] = core.ImportRecord{
		ID:              importID,
		CreatorID:       meta.CreatorID,
		Origin:          meta.DefaultOrigin,
		ResearchGroupID: meta.ResearchGroupID,
		QuestionCount:   len(qs),
		CreatedAt:       time.Now().UTC(),
	}
	return core.StoreResult{ImportID: importID, Imported: len(qs), QuestionIDs: ids}, nil
}

func (m *memoryStore) GetImport(_ context.Context, id string) (core.ImportRecord, error) {
	if m.lookupErr != nil {
		return core.ImportRecord{}, m.lookupErr
	}
	rec, ok := m.imports[id]
	if !ok {
		return core.ImportRecord{}, fmt.Errorf("get import %s: %w", id, core.ErrImportNotFound)
	}
	return rec, nil
}

const goodCSV = "text,type,category,scope\n" +
	"Qual é a sua idade atual?,NUMERICA,DEMOGRAFICA,LOCAL\n" +
	"Você recomendaria o serviço?,SIM_NAO,COMPORTAMENTAL,LOCAL\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Second,
		},
		Import: config.ImportConfig{SpreadsheetOrigin: "EXCEL_IMPORT", CSVOrigin: "CSV_IMPORT"},
	}
}

func newTestServer(t *testing.T, store core.QuestionStore, cfg *config.Config) http.Handler {
	t.Helper()
	srv := NewServer(core.NewService(store, cfg), cfg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv.Router()
}

// multipartRequest builds a POST with a "file" part and extra form fields.
func multipartRequest(t *testing.T, path, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadCSV(t *testing.T) {
	store := &memoryStore{}
	h := newTestServer(t, store, testConfig())
	groupID := uuid.NewString()

	req := multipartRequest(t, "/api/questions/upload/csv", "perguntas.csv", []byte(goodCSV),
		map[string]string{"researchGroupId": groupID})
	req.Header.Set("X-User-ID", "pesquisador-7")
	rec := do(h, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var report core.ImportReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, "2 questions imported successfully", report.Message)
	assert.Equal(t, "perguntas.csv", report.FileName)
	assert.Len(t, report.QuestionIDs, 2)

	assert.Equal(t, "CSV_IMPORT", store.meta.DefaultOrigin)
	assert.Equal(t, "pesquisador-7", store.meta.CreatorID)
	assert.Equal(t, groupID, store.meta.ResearchGroupID)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestUploadExcel(t *testing.T) {
	store := &memoryStore{}
	h := newTestServer(t, store, testConfig())

	data, err := core.SpreadsheetTemplate()
	require.NoError(t, err)

	rec := do(h, multipartRequest(t, "/api/questions/upload/excel", "template_questoes.xlsx", data,
		map[string]string{"defaultOrigin": "MANUAL"}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "MANUAL", store.meta.DefaultOrigin)
	assert.NotEmpty(t, store.got)
}

func TestUpload_BatchRejected(t *testing.T) {
	store := &memoryStore{}
	h := newTestServer(t, store, testConfig())
	data := goodCSV + ",SIM_NAO,DEMOGRAFICA,LOCAL\n" + "Outra pergunta válida?,TIPO_X,DEMOGRAFICA,LOCAL\n"

	rec := do(h, multipartRequest(t, "/api/questions/upload/csv", "q.csv", []byte(data), nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body core.BatchRejectedError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "found 2 validation errors; no questions were imported", body.Message)
	require.Len(t, body.Errors, 2)
	assert.True(t, strings.HasPrefix(body.Errors[0], "line 4: "), body.Errors[0])
	assert.True(t, strings.HasPrefix(body.Errors[1], "line 5: "), body.Errors[1])
	assert.Equal(t, 2, body.SuccessCount)
	assert.Equal(t, 4, body.TotalRows)
	assert.Zero(t, store.calls)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		filename string
		data     []byte
		fields   map[string]string
		status   int
		code     string
	}{
		{"no file", "/api/questions/upload/csv", "", nil, nil, http.StatusBadRequest, "FILE004"},
		{"wrong extension", "/api/questions/upload/csv", "q.xlsx", []byte(goodCSV), nil, http.StatusUnsupportedMediaType, "FILE003"},
		{"csv to excel endpoint", "/api/questions/upload/excel", "q.csv", []byte(goodCSV), nil, http.StatusUnsupportedMediaType, "FILE003"},
		{"empty file", "/api/questions/upload/csv", "q.csv", []byte{}, nil, http.StatusBadRequest, "FILE005"},
		{"header only", "/api/questions/upload/csv", "q.csv", []byte("text,type,category,scope\n"), nil, http.StatusBadRequest, "FILE007"},
		{"bad group id", "/api/questions/upload/csv", "q.csv", []byte(goodCSV), map[string]string{"researchGroupId": "grupo-1"}, http.StatusBadRequest, "VAL003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			h := newTestServer(t, store, testConfig())

			rec := do(h, multipartRequest(t, tt.path, tt.filename, tt.data, tt.fields))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
			assert.Zero(t, store.calls)
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 64
	h := newTestServer(t, &memoryStore{}, cfg)

	rec := do(h, multipartRequest(t, "/api/questions/upload/csv", "q.csv", []byte(goodCSV), nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE001")
}

func TestUpload_StoreFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate", &core.UpstreamError{Kind: core.UpstreamDuplicate, Constraint: "questions_group_text_key", Err: fmt.Errorf("boom")}, http.StatusConflict, "DB001"},
		{"foreign key", &core.UpstreamError{Kind: core.UpstreamForeignKey, Err: fmt.Errorf("boom")}, http.StatusUnprocessableEntity, "DB003"},
		{"connection refused", fmt.Errorf("dial tcp: connection refused"), http.StatusBadGateway, "DB004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &memoryStore{err: tt.err}, testConfig())
			rec := do(h, multipartRequest(t, "/api/questions/upload/csv", "q.csv", []byte(goodCSV), nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestGetImport(t *testing.T) {
	store := &memoryStore{}
	h := newTestServer(t, store, testConfig())
	groupID := uuid.NewString()

	req := multipartRequest(t, "/api/questions/upload/csv", "perguntas.csv", []byte(goodCSV),
		map[string]string{"researchGroupId": groupID})
	req.Header.Set("X-User-ID", "pesquisador-7")
	created := do(h, req)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var report core.ImportReport
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &report))

	tests := []struct {
		name   string
		id     string
		status int
		code   string
	}{
		{"stored import", report.ImportID, http.StatusOK, ""},
		{"unknown import", uuid.NewString(), http.StatusNotFound, "DB008"},
		{"malformed id", "import-1", http.StatusBadRequest, "VAL004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, httptest.NewRequest(http.MethodGet, "/api/questions/imports/"+tt.id, nil))
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.code != "" {
				var body ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.code, body.Code)
				return
			}
			var got core.ImportRecord
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, report.ImportID, got.ID)
			assert.Equal(t, 2, got.QuestionCount)
			assert.Equal(t, "CSV_IMPORT", got.Origin)
			assert.Equal(t, groupID, got.ResearchGroupID)
			assert.Equal(t, "pesquisador-7", got.CreatorID)
		})
	}
}

func TestGetImport_StoreFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		private string
	}{
		{"connection refused", errors.New("dial tcp 10.0.0.5:5432: connection refused"), http.StatusBadGateway, "DB004", ""},
		{"unmapped driver error", errors.New("pq: relation question_imports_v2 missing"), http.StatusBadGateway, "ERR000", "question_imports_v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &memoryStore{lookupErr: tt.err}, testConfig())
			rec := do(h, httptest.NewRequest(http.MethodGet, "/api/questions/imports/"+uuid.NewString(), nil))

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			if tt.private != "" {
				assert.NotContains(t, rec.Body.String(), tt.private)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   slog.Level
	}{
		{"catalogued client error", core.ErrFileTooLarge, http.StatusRequestEntityTooLarge, slog.LevelWarn},
		{"catalogued upstream error", errors.New("connection refused"), http.StatusBadGateway, slog.LevelError},
		{"uncatalogued client error", errors.New("unexpected multipart state"), http.StatusBadRequest, slog.LevelError},
		{"uncatalogued server error", errors.New("nil map write"), http.StatusInternalServerError, slog.LevelError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logLevel(tt.err, tt.status), tt.name)
	}
}

func TestPreview(t *testing.T) {
	store := &memoryStore{}
	h := newTestServer(t, store, testConfig())
	data := goodCSV + "curta,SIM_NAO,DEMOGRAFICA,LOCAL\n"

	rec := do(h, multipartRequest(t, "/api/questions/preview", "q.csv", []byte(data), nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Accepted []json.RawMessage   `json:"accepted"`
		Rejected []core.RowRejection `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Accepted, 2)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 4, result.Rejected[0].Line)
	assert.Zero(t, store.calls)
}

func TestTemplates(t *testing.T) {
	h := newTestServer(t, &memoryStore{}, testConfig())

	t.Run("excel", func(t *testing.T) {
		rec := do(h, httptest.NewRequest(http.MethodGet, "/api/questions/templates/excel", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "template_questoes.xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		assert.NotEmpty(t, f.GetSheetList())
	})

	t.Run("csv", func(t *testing.T) {
		rec := do(h, httptest.NewRequest(http.MethodGet, "/api/questions/templates/csv", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "template_questoes.csv")
		body := rec.Body.String()
		assert.True(t, strings.HasPrefix(body, "\ufefftext,type,category,scope"))
	})
}

func TestStatus(t *testing.T) {
	h := newTestServer(t, &memoryStore{}, testConfig())

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status core.LimiterStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 2, status.MaxConcurrent)
	assert.Equal(t, 0, status.Active)
}

func TestRateLimiting(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 1}
	h := newTestServer(t, &memoryStore{}, cfg)

	first := do(h, multipartRequest(t, "/api/questions/preview", "q.csv", []byte(goodCSV), nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := do(h, multipartRequest(t, "/api/questions/preview", "q.csv", []byte(goodCSV), nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "RATE001")

	// Template downloads use the general bucket only.
	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/questions/templates/csv", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_WindowReset(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := &rateLimiter{visitors: map[string]*visitor{}, rate: 2, window: time.Minute, now: func() time.Time { return now }}

	assert.True(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("1.2.3.4"))
}

func TestRateLimiter_StopEndsCleanup(t *testing.T) {
	rl := &rateLimiter{visitors: map[string]*visitor{}, rate: 1, window: time.Hour, now: time.Now, done: make(chan struct{})}

	finished := make(chan struct{})
	go func() {
		rl.cleanup()
		close(finished)
	}()

	rl.stop()
	rl.stop()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("cleanup still running after stop")
	}
}

func TestRateLimiter_Evict(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := &rateLimiter{visitors: map[string]*visitor{
		"stale":  {lastReset: now.Add(-3 * time.Minute)},
		"recent": {lastReset: now.Add(-30 * time.Second)},
	}, rate: 1, window: time.Minute, now: func() time.Time { return now }}

	rl.evict()

	assert.NotContains(t, rl.visitors, "stale")
	assert.Contains(t, rl.visitors, "recent")
}

func TestServer_ShutdownStopsRateLimiters(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 1}
	srv := NewServer(core.NewService(&memoryStore{}, cfg), cfg)
	require.Len(t, srv.limiters, 2)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()))

	for _, rl := range srv.limiters {
		select {
		case <-rl.done:
		default:
			t.Fatal("rate limiter still running after shutdown")
		}
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"segredo"}}
	h := newTestServer(t, &memoryStore{}, cfg)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-API-Key", "segredo")
	assert.Equal(t, http.StatusOK, do(h, req).Code)
}
