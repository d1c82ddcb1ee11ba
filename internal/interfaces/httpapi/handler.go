package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/riskibarqy/nleaderboard/internal/usecase"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	leaderboardService *usecase.LeaderboardService
	historyService     *usecase.HistoryService
	submissionService  *usecase.SubmissionService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	leaderboardService *usecase.LeaderboardService,
	historyService *usecase.HistoryService,
	submissionService *usecase.SubmissionService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leaderboardService: leaderboardService,
		historyService:     historyService,
		submissionService:  submissionService,
		logger:             logger,
		validator:          validator.New(),
	}
}

var tracer = otel.Tracer("nleaderboard/internal/interfaces/httpapi")

// startSpan opens a handler span under the request span. Untraced paths
// such as /healthz have no parent and get the no-op span.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func parseRef(r *http.Request) (highscoreable.Ref, error) {
	kind, err := highscoreable.ParseKind(r.PathValue("kind"))
	if err != nil {
		return highscoreable.Ref{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	id, err := parseInt64(r.PathValue("id"), "id")
	if err != nil {
		return highscoreable.Ref{}, err
	}
	return highscoreable.Ref{Kind: kind, ID: id}, nil
}

func parseInt64(raw, name string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", usecase.ErrInvalidInput, name)
	}
	return value, nil
}

// parseInstant reads a unix timestamp query parameter. A missing value
// means now.
func parseInstant(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Now().UTC(), nil
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a unix timestamp", usecase.ErrInvalidInput, name)
	}
	return time.Unix(unix, 0).UTC(), nil
}
