package logging

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, "info", "json")).Info("hello", "rows", 3)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"rows":3`)

	buf.Reset()
	slog.New(NewHandler(&buf, "info", "text")).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNewHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "warn", "text"))
	logger.Info("dropped")
	assert.Empty(t, buf.String())
	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestFromContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	slog.SetDefault(slog.New(NewHandler(&buf, "debug", "text")))

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithFields(ctx, "file", "q.csv").Info("parsed")

	assert.Contains(t, buf.String(), "request_id=req-42")
	assert.Contains(t, buf.String(), "file=q.csv")
}

func TestSetup_File(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "import.log")
	closer := Setup(Options{Level: "info", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1})
	slog.Info("written to file")
	require.NoError(t, closer.Close())

	assert.FileExists(t, path)
}

func TestLevelForStatus(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LevelForStatus(200))
	assert.Equal(t, slog.LevelWarn, LevelForStatus(422))
	assert.Equal(t, slog.LevelError, LevelForStatus(503))
}
