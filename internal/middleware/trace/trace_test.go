package trace

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/log"
)

func TestMiddlewareSetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "json", Output: &buf})

	var seen string
	handler := NewMiddleware(logger, func(*http.Request) string { return "203.0.113.7" }).
		Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
			w.WriteHeader(http.StatusNotFound)
		}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/expenses/", nil))

	require.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rr.Header().Get(HeaderRequestID))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, buf.String(), `"status_code":404`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"client_ip":"203.0.113.7"`)
	assert.Contains(t, buf.String(), seen)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LevelFor(http.StatusOK))
	assert.Equal(t, slog.LevelInfo, LevelFor(http.StatusNoContent))
	assert.Equal(t, slog.LevelWarn, LevelFor(http.StatusBadRequest))
	assert.Equal(t, slog.LevelWarn, LevelFor(http.StatusNotFound))
	assert.Equal(t, slog.LevelError, LevelFor(http.StatusInternalServerError))
}

func TestGetRequestIDMissing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.NotEqual(t, GenerateRequestID(), GenerateRequestID())
}
