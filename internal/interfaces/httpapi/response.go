package httpapi

import (
	"context"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/riskibarqy/nleaderboard/internal/usecase"
)

const (
	apiVersion  = "2.0"
	errorDomain = "nleaderboard"
)

// envelope follows the Google JSON style guide: exactly one of data or
// error is set.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type httpStatus struct {
	code   int
	status string
}

var statusByKind = map[usecase.ErrorKind]httpStatus{
	usecase.KindInvalidInput: {http.StatusBadRequest, "INVALID_ARGUMENT"},
	usecase.KindNotFound:     {http.StatusNotFound, "NOT_FOUND"},
	usecase.KindRejected:     {http.StatusForbidden, "PERMISSION_DENIED"},
	usecase.KindUnavailable:  {http.StatusServiceUnavailable, "UNAVAILABLE"},
	usecase.KindInternal:     {http.StatusInternalServerError, "INTERNAL"},
}

func statusOf(kind usecase.ErrorKind) httpStatus {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return statusByKind[usecase.KindInternal]
}

func writeJSON(w http.ResponseWriter, code int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{APIVersion: apiVersion, Data: data})
}

// writeError hides the message of internal errors from clients and logs
// it instead.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := usecase.KindOf(err)
	msg := err.Error()
	if kind == usecase.KindInternal {
		logging.Default().ErrorContext(ctx, "request failed", "error", err)
		msg = "internal server error"
	}
	writeProblem(w, kind, msg)
}

func writeProblem(w http.ResponseWriter, kind usecase.ErrorKind, msg string) {
	s := statusOf(kind)
	writeJSON(w, s.code, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    s.code,
			Message: msg,
			Status:  s.status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: kind.Reason(), Message: msg}},
		},
	})
}
