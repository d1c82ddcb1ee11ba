package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/nleaderboard/internal/domain/mappack"
	"github.com/riskibarqy/nleaderboard/internal/usecase"
)

// GetBoard serves the current top 20 of a highscoreable. Mappack targets
// take a board=hs|sr query parameter.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBoard")
	defer span.End()

	ref, err := parseRef(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if ref.Kind.IsMappack() {
		board := mappack.Board(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("board"))))
		if board == "" {
			board = mappack.BoardHS
		}
		if board != mappack.BoardHS && board != mappack.BoardSR {
			writeError(ctx, w, fmt.Errorf("%w: board must be hs or sr", usecase.ErrInvalidInput))
			return
		}
		rows, err := h.submissionService.Board(ctx, ref, board)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		out := make([]mappackScoreDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, mappackScoreToDTO(row, board))
		}
		writeSuccess(ctx, w, http.StatusOK, out)
		return
	}

	rows, err := h.leaderboardService.Current(ctx, ref)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	out := make([]scoreDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, scoreToDTO(row))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetBoardHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBoardHistory")
	defer span.End()

	ref, err := parseRef(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	at, err := parseInstant(r, "at")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.historyService.Snapshot(ctx, ref, at)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, archivesToDTO(rows))
}

func (h *Handler) GetBoardChanges(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBoardChanges")
	defer span.End()

	ref, err := parseRef(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	changes, err := h.historyService.Changes(ctx, ref)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	out := make([]int64, 0, len(changes))
	for _, at := range changes {
		out = append(out, at.Unix())
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetBoardZeroths(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBoardZeroths")
	defer span.End()

	ref, err := parseRef(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.historyService.Zeroths(ctx, ref)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, archivesToDTO(rows))
}

func (h *Handler) GetArchiveRank(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetArchiveRank")
	defer span.End()

	archiveID, err := parseInt64(r.PathValue("archiveID"), "archive id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	at, err := parseInstant(r, "at")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rank, err := h.historyService.FindRank(ctx, archiveID, at)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]int64{"archive_id": archiveID, "rank": int64(rank), "at": at.Unix()})
}
