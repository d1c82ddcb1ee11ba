package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/nleaderboard/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	out := decodeEnvelope[map[string]string](t, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", out.Data["status"])
	assert.Nil(t, out.Error)
}

func TestWriteError_ByKind(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		status  string
		reason  string
		message string
	}{
		{fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput), http.StatusBadRequest, "INVALID_ARGUMENT", "invalidInput", "invalid input: bad payload"},
		{fmt.Errorf("%w: archive=9", usecase.ErrNotFound), http.StatusNotFound, "NOT_FOUND", "notFound", "resource not found: archive=9"},
		{fmt.Errorf("%w: user=1", usecase.ErrRejected), http.StatusForbidden, "PERMISSION_DENIED", "rejected", "submission rejected: user=1"},
		{fmt.Errorf("%w: steam session is inactive", usecase.ErrDependencyUnavailable), http.StatusServiceUnavailable, "UNAVAILABLE", "dependencyUnavailable", "dependency unavailable: steam session is inactive"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL", "internalError", "internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(context.Background(), rec, tc.err)

			out := decodeEnvelope[any](t, rec)
			assert.Equal(t, tc.code, rec.Code)
			require.NotNil(t, out.Error)
			assert.Equal(t, tc.code, out.Error.Code)
			assert.Equal(t, tc.status, out.Error.Status)
			assert.Equal(t, tc.message, out.Error.Message)
			require.Len(t, out.Error.Errors, 1)
			assert.Equal(t, errorDomain, out.Error.Errors[0].Domain)
			assert.Equal(t, tc.reason, out.Error.Errors[0].Reason)
		})
	}
}
