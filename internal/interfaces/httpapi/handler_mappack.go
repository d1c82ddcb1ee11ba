package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nleaderboard/internal/usecase"
)

const maxSubmissionBytes = 1 << 20

func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitScore")
	defer span.End()

	var req submissionRequest
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.submissionService.Submit(ctx, usecase.SubmissionInput{
		UserID:    req.UserID,
		UserName:  strings.TrimSpace(req.UserName),
		QueryType: req.QT,
		LevelID:   req.LevelID,
		Score:     req.Score,
		Demo:      req.Demo,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit score failed", "user_id", req.UserID, "level_id", req.LevelID, "qt", req.QT, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GoldCheck(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GoldCheck")
	defer span.End()

	var minID int64
	if raw := r.URL.Query().Get("min_id"); strings.TrimSpace(raw) != "" {
		value, err := parseInt64(raw, "min_id")
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		minID = value
	}

	reports, err := h.submissionService.GoldCheck(ctx, minID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, reports)
}
