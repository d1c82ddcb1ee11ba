package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func TestShouldTraceRequest(t *testing.T) {
	for _, path := range []string{"/healthz", "/readyz", "/metrics", " /HEALTHZ "} {
		assert.False(t, shouldTraceRequest(path), path)
	}
	for _, path := range []string{"/v1/boards/level/0", "/v1/mappacks/submissions", "/"} {
		assert.True(t, shouldTraceRequest(path), path)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantOrigin string
		wantVary   bool
		wantStatus int
	}{
		{name: "configured origin", allowed: []string{"https://nplusplus.example.com"}, method: http.MethodGet, origin: "https://nplusplus.example.com", wantOrigin: "https://nplusplus.example.com", wantVary: true, wantStatus: http.StatusOK},
		{name: "wildcard preflight", allowed: []string{"*"}, method: http.MethodOptions, origin: "https://tools.example.com", wantOrigin: "*", wantStatus: http.StatusNoContent},
		{name: "unknown origin", allowed: []string{"https://allowed.example.com", " "}, method: http.MethodGet, origin: "https://other.example.com", wantStatus: http.StatusOK},
		{name: "no origin header", allowed: []string{"*"}, method: http.MethodOptions, wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/v1/boards/level/0", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tc.allowed, okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tc.wantVary, rec.Header().Get("Vary") == "Origin")
		})
	}
}

func TestRequestLogging_LevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewConsole(&buf, logging.LevelInfo)

	mux := http.NewServeMux()
	mux.Handle("GET /ok", okHandler())
	mux.Handle("GET /missing", http.NotFoundHandler())
	mux.Handle("GET /healthz", okHandler())
	handler := RequestLogging(logger, mux)

	for _, path := range []string{"/ok", "/missing", "/healthz"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "INFO")
	assert.Contains(t, lines[0], `"bytes": 2`)
	assert.Contains(t, lines[1], "WARN")
	assert.Contains(t, lines[1], `"status": 404`)
}

func TestRecoverPanic(t *testing.T) {
	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("board exploded")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/boards/level/0", nil))

	out := decodeEnvelope[any](t, rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, out.Error)
	assert.Equal(t, "INTERNAL", out.Error.Status)
	assert.Equal(t, "internalError", out.Error.Errors[0].Reason)
}
