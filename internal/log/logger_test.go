package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Format: "json", Output: &buf}), &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLoggerAddsComponent(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)

	logger.WithComponent(ComponentExpense).Info("Expense created", FieldExpenseID, "e1")
	entry := lastEntry(t, buf)
	assert.Equal(t, ComponentExpense, entry[FieldComponent])
	assert.Equal(t, "e1", entry[FieldExpenseID])
	assert.Equal(t, "Expense created", entry["msg"])

	logger.With(FieldUserID, "u1").WithComponent(ComponentCategory).WarnContext(context.Background(), "careful")
	entry = lastEntry(t, buf)
	assert.Equal(t, ComponentCategory, entry[FieldComponent])
	assert.Equal(t, "u1", entry[FieldUserID])
	assert.Equal(t, "WARN", entry["level"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Error("shown")
	assert.Equal(t, "shown", lastEntry(t, buf)["msg"])
}

func TestDefaultComponent(t *testing.T) {
	assert.Equal(t, ComponentApp, New(Config{Output: &bytes.Buffer{}}).Component())
	assert.Equal(t, ComponentApp, Discard().Component())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContextMiddleware(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	handler := Middleware(logger)(RequestIDMiddleware(func(r *http.Request) string {
		return r.Header.Get("X-Request-ID")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "handled")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req_1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "req_1", lastEntry(t, buf)[FieldRequestID])

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	_, ok := lastEntry(t, buf)[FieldRequestID]
	assert.False(t, ok)
}

func TestFromContextFallsBack(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	assert.Equal(t, "unknown", logger.Component())
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentHTTP).
		WithRequestID("").
		WithOperation(OpCreate).
		WithUser("u1").
		WithError(nil).
		WithHTTPRequest(http.MethodPost, "/expenses/", "")

	assert.Equal(t, LogFields{
		FieldComponent: ComponentHTTP,
		FieldOperation: OpCreate,
		FieldUserID:    "u1",
		FieldMethod:    http.MethodPost,
		FieldPath:      "/expenses/",
		FieldQuery:     "",
	}, fields)
	assert.Len(t, fields.ToSlice(), 12)
}
