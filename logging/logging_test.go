package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestRotatingWriterCreatesWeeklyFile(t *testing.T) {
	dir := t.TempDir()

	rw, err := NewRotatingWriter(dir, 1, 0)
	require.NoError(t, err)
	defer rw.Close()

	_, err = rw.Write([]byte("hello\n"))
	require.NoError(t, err)

	name := filepath.Join(dir, "portal-"+weekKey(time.Now())+".log")
	content, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

func TestRotatingWriterRollsOverOnSize(t *testing.T) {
	dir := t.TempDir()

	rw, err := NewRotatingWriter(dir, 1, 10)
	require.NoError(t, err)
	defer rw.Close()

	for i := 0; i < 3; i++ {
		_, err := rw.Write([]byte("12345678\n"))
		require.NoError(t, err)
	}

	week := weekKey(time.Now())
	for _, name := range []string{
		"portal-" + week + ".log",
		"portal-" + week + "_01.log",
		"portal-" + week + "_02.log",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestRotatingWriterSwitchesWeek(t *testing.T) {
	dir := t.TempDir()

	rw, err := NewRotatingWriter(dir, 1, 0)
	require.NoError(t, err)
	defer rw.Close()

	later := time.Now().Add(8 * 24 * time.Hour)
	rw.now = func() time.Time { return later }

	_, err = rw.Write([]byte("next week\n"))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "portal-"+weekKey(later)+".log"))
	require.NoError(t, err)
	assert.Equal(t, "next week\n", string(content))
}

func TestRemoveExpired(t *testing.T) {
	dir := t.TempDir()

	rw, err := NewRotatingWriter(dir, 1, 0)
	require.NoError(t, err)
	defer rw.Close()

	old := filepath.Join(dir, "portal-2000-W01.log")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
	past := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))
	require.NoError(t, os.Chtimes(unrelated, past, past))

	removed, err := rw.removeExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(unrelated)
	assert.NoError(t, err)
}

func TestInitWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	service := Init(Options{Dir: dir, Level: "warn", RetentionWeeks: 1, MaxFileSize: 1 << 20, Console: &console})
	defer func() {
		_ = service.Close()
		DefaultLoggingService = nil
	}()

	Debug("debug line")
	Warn("warn line", "key", "value")

	assert.NotContains(t, console.String(), "debug line")
	assert.Contains(t, console.String(), "warn line")

	content, err := os.ReadFile(filepath.Join(dir, "portal-"+weekKey(time.Now())+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"debug line"`)
	assert.Contains(t, string(content), `"key":"value"`)
}

func TestLoggingMiddleware(t *testing.T) {
	var out strings.Builder
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	t.Run("logs regular requests", func(t *testing.T) {
		out.Reset()
		req := httptest.NewRequest(http.MethodPost, "/cart/items?x=1", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-42"))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		line := out.String()
		assert.Contains(t, line, "request_id=req-42")
		assert.Contains(t, line, "path=/cart/items")
		assert.Contains(t, line, `query="x=1"`)
		assert.Contains(t, line, "status_code=201")
		assert.Contains(t, line, "bytes_written=7")
	})

	for _, path := range []string{"/health", "/metrics"} {
		t.Run("skips "+path, func(t *testing.T) {
			out.Reset()
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusCreated, rr.Code)
			assert.Empty(t, out.String())
		})
	}
}

func TestLoggingMiddlewareAnnotations(t *testing.T) {
	var out strings.Builder
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Annotate(r.Context(), "session_id", "sess-1")
		Annotate(r.Context(), "cart_updated", true, "notification", "Aspirin added to cart!")
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/cart/items", nil))

	line := out.String()
	assert.Contains(t, line, "level=INFO")
	assert.Contains(t, line, "session_id=sess-1")
	assert.Contains(t, line, "cart_updated=true")
	assert.Contains(t, line, `notification="Aspirin added to cart!"`)
}

func TestLoggingMiddlewareLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusBadRequest, "level=WARN"},
		{http.StatusUnprocessableEntity, "level=WARN"},
		{http.StatusBadGateway, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var out strings.Builder
			logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))
			handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/predict", nil))
			assert.Contains(t, out.String(), tt.level)
		})
	}
}

func TestAnnotateOutsideMiddlewareIsNoOp(t *testing.T) {
	assert.NotPanics(t, func() { Annotate(context.Background(), "key", "value") })
}
