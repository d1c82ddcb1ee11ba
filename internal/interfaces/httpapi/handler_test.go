package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nleaderboard/internal/codec/demo"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/nleaderboard/internal/infrastructure/repository/memory"
	usecasemock "github.com/riskibarqy/nleaderboard/internal/mocks/usecase"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/riskibarqy/nleaderboard/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testEnvelope[T any] struct {
	APIVersion string     `json:"apiVersion"`
	Data       T          `json:"data"`
	Error      *errorBody `json:"error"`
}

type apiFixture struct {
	router      http.Handler
	leaderboard *usecase.LeaderboardService
	source      *usecasemock.ScoreSource
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := memory.NewDatabase([]highscoreable.Highscoreable{
		highscoreable.Level{Meta: highscoreable.Meta{ID: 600, Name: "S-A-00-00", Tab: highscoreable.TabN}},
		highscoreable.MappackLevel{Meta: highscoreable.Meta{ID: 7, Name: "CTP-A-00-00"}, MappackID: 1},
	})
	scores := memory.NewScoreRepository(db)
	mappackScores := memory.NewMappackRepository(db)
	archives := memory.NewArchiveRepository(db)
	source := usecasemock.NewScoreSource(t)
	logger := logging.NewNop()

	lb := usecase.NewLeaderboardService(
		memory.NewHighscoreableRepository(db),
		scores,
		scores,
		source,
		leaderboard.Policy{},
		usecase.LeaderboardConfig{MaxWorkers: 1},
		nil,
		logger,
	)
	hist := usecase.NewHistoryService(archives, usecase.HistoryConfig{})
	sub := usecase.NewSubmissionService(
		memory.NewHighscoreableRepository(db),
		memory.NewPlayerRepository(db),
		mappackScores,
		mappackScores,
		leaderboard.Policy{},
		nil,
		logger,
	)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	return &apiFixture{
		router:      NewRouter(NewHandler(lb, hist, sub, logger), metrics, logger, []string{"*"}),
		leaderboard: lb,
		source:      source,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope[T any](t *testing.T, rr *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()

	var out testEnvelope[T]
	require.NoError(t, sonic.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, apiVersion, out.APIVersion)
	return out
}

func mappackDemo(t *testing.T, frames int) []byte {
	t.Helper()

	inputs := make([]byte, frames)
	for i := range inputs {
		inputs[i] = byte(i % 8)
	}
	payload, err := demo.Compose(demo.LayoutLevel, []int64{7}, [][]byte{inputs})
	require.NoError(t, err)
	replay, err := demo.NewReplay(demo.LayoutLevel, 0, 7, 0, payload)
	require.NoError(t, err)
	return replay.Payload
}

func TestHandler_Healthz(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	out := decodeEnvelope[map[string]string](t, rr)
	assert.Equal(t, "ok", out.Data["status"])
}

func TestHandler_Metrics(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "# metrics")
}

func TestHandler_GetBoard_Current(t *testing.T) {
	f := newAPIFixture(t)
	ref := highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 600}

	f.source.On("FetchScores", mock.Anything, ref).Return([]leaderboard.Entry{
		{UserID: 1, UserName: "alpha", Score: 90000, ReplayID: 10},
		{UserID: 2, UserName: "beta", Score: 85000, ReplayID: 11},
	}, nil).Once()
	_, err := f.leaderboard.Refresh(t.Context(), ref)
	require.NoError(t, err)

	rr := f.do(t, http.MethodGet, "/v1/boards/level/600", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	out := decodeEnvelope[[]scoreDTO](t, rr)
	require.Len(t, out.Data, 2)
	assert.Equal(t, "alpha", out.Data[0].PlayerName)
	assert.Equal(t, 0, out.Data[0].Rank)
	assert.InDelta(t, 90.0, out.Data[0].Score, 1e-9)
	assert.Equal(t, int64(11), out.Data[1].ReplayID)

	changes := f.do(t, http.MethodGet, "/v1/boards/level/600/changes", nil)
	require.Equal(t, http.StatusOK, changes.Code)
	assert.Len(t, decodeEnvelope[[]int64](t, changes).Data, 1)

	history := f.do(t, http.MethodGet, "/v1/boards/level/600/history", nil)
	require.Equal(t, http.StatusOK, history.Code)
	snapshot := decodeEnvelope[[]archiveDTO](t, history).Data
	require.Len(t, snapshot, 2)

	rank := f.do(t, http.MethodGet, "/v1/archives/"+strconv.FormatInt(snapshot[0].ID, 10)+"/rank", nil)
	require.Equal(t, http.StatusOK, rank.Code)
	assert.Equal(t, snapshot[0].ID, decodeEnvelope[map[string]int64](t, rank).Data["archive_id"])
}

func TestHandler_GetBoard_Errors(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name   string
		path   string
		status int
		reason string
	}{
		{name: "unknown kind", path: "/v1/boards/planet/1", status: http.StatusBadRequest, reason: "INVALID_ARGUMENT"},
		{name: "negative id", path: "/v1/boards/level/-1", status: http.StatusBadRequest, reason: "INVALID_ARGUMENT"},
		{name: "bad mappack board", path: "/v1/boards/mappack_level/7?board=xx", status: http.StatusBadRequest, reason: "INVALID_ARGUMENT"},
		{name: "bad instant", path: "/v1/boards/level/600/history?at=yesterday", status: http.StatusBadRequest, reason: "INVALID_ARGUMENT"},
		{name: "missing archive", path: "/v1/archives/999/rank", status: http.StatusNotFound, reason: "NOT_FOUND"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, http.MethodGet, tc.path, nil)
			require.Equal(t, tc.status, rr.Code)

			out := decodeEnvelope[any](t, rr)
			require.NotNil(t, out.Error)
			require.Len(t, out.Error.Errors, 1)
			assert.Equal(t, tc.reason, out.Error.Status)
		})
	}
}

func TestHandler_SubmitScore(t *testing.T) {
	f := newAPIFixture(t)

	body, err := sonic.Marshal(map[string]any{
		"user_id":   100,
		"user_name": "P",
		"qt":        0,
		"level_id":  7,
		"score":     88000,
		"demo":      mappackDemo(t, 120),
	})
	require.NoError(t, err)

	rr := f.do(t, http.MethodPost, "/v1/mappacks/submissions", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	result := decodeEnvelope[usecase.SubmissionResult](t, rr).Data
	assert.Equal(t, 1, result.Better)
	assert.Equal(t, 0, result.Rank)
	assert.Equal(t, int64(1), result.ReplayID)

	board := f.do(t, http.MethodGet, "/v1/boards/mappack_level/7?board=sr", nil)
	require.Equal(t, http.StatusOK, board.Code)
	rows := decodeEnvelope[[]mappackScoreDTO](t, board).Data
	require.Len(t, rows, 1)
	assert.Equal(t, "P", rows[0].PlayerName)
	assert.Equal(t, int64(120), rows[0].Score)
	require.NotNil(t, rows[0].Rank)
	assert.Equal(t, 0, *rows[0].Rank)

	gold := f.do(t, http.MethodGet, "/v1/mappacks/gold-check?min_id=0", nil)
	require.Equal(t, http.StatusOK, gold.Code)
	assert.Nil(t, decodeEnvelope[[]usecase.GoldReport](t, gold).Error)
}

func TestHandler_SubmitScore_RejectsBadPayload(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"user_id":`},
		{name: "unknown field", body: `{"user_id":1,"level_id":7,"score":1,"demo":"AA==","extra":true}`},
		{name: "missing demo", body: `{"user_id":1,"level_id":7,"score":1}`},
		{name: "negative score", body: `{"user_id":1,"level_id":7,"score":-5,"demo":"AA=="}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/v1/mappacks/submissions", []byte(tc.body))
			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}
