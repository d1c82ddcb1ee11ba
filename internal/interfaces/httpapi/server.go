package httpapi

import (
	"net/http"

	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/riskibarqy/nleaderboard/internal/usecase"
)

// NewRouter wires the API routes. A nil metrics handler leaves /metrics
// unregistered.
func NewRouter(
	handler *Handler,
	metrics http.Handler,
	logger *logging.Logger,
	corsAllowedOrigins []string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, metrics)
	registerBoardRoutes(mux, handler)
	registerMappackRoutes(mux, handler)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered", "panic", rec, "path", r.URL.Path)
				writeProblem(w, usecase.KindInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
