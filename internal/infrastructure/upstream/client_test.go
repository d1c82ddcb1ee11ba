package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/nleaderboard/internal/platform/resilience"
	"github.com/riskibarqy/nleaderboard/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker resilience.Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		BaseURL:        srv.URL,
		SteamID:        "76561198000000000",
		MaxRetries:     1,
		RetryBackoff:   time.Millisecond,
		CircuitBreaker: breaker,
	})
}

func TestFetchScores_QueryAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref   highscoreable.Ref
		param string
	}{
		{highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 600}, "level_id"},
		{highscoreable.Ref{Kind: highscoreable.KindEpisode, ID: 120}, "episode_id"},
		{highscoreable.Ref{Kind: highscoreable.KindStory, ID: 24}, "story_id"},
		{highscoreable.Ref{Kind: highscoreable.KindUserlevel, ID: 42}, "level_id"},
	}
	for _, tc := range tests {
		t.Run(string(tc.ref.Kind), func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/get_scores", r.URL.Path)
				q := r.URL.Query()
				assert.Equal(t, "76561198000000000", q.Get("steam_id"))
				assert.True(t, q.Has("steam_auth"))
				assert.Equal(t, "", q.Get("steam_auth"))
				assert.Equal(t, strconv.FormatInt(tc.ref.ID, 10), q.Get(tc.param))
				_, _ = w.Write([]byte(`{"scores":[{"score":95000,"rank":0,"user_id":7,"user_name":"alpha","replay_id":12}],"userInfo":null}`))
			}, resilience.Config{})

			entries, err := client.FetchScores(context.Background(), tc.ref)
			require.NoError(t, err)
			assert.Equal(t, []leaderboard.Entry{{UserID: 7, UserName: "alpha", Score: 95000, ReplayID: 12}}, entries)
		})
	}
}

func TestFetchScores_RejectsMappackBoards(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := client.FetchScores(context.Background(), highscoreable.Ref{Kind: highscoreable.KindMappackLevel, ID: 1})
	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
}

func TestFetchScores_InactiveSession(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("-1337"))
	}, resilience.Config{})

	_, err := client.FetchScores(context.Background(), highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 1})
	assert.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
}

func TestFetchReplay_QueryTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind highscoreable.Kind
		qt   string
	}{
		{highscoreable.KindLevel, "0"},
		{highscoreable.KindEpisode, "1"},
		{highscoreable.KindStory, "4"},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/get_replay", r.URL.Path)
				assert.Equal(t, "31", r.URL.Query().Get("replay_id"))
				assert.Equal(t, tc.qt, r.URL.Query().Get("qt"))
				_, _ = w.Write([]byte{1, 2, 3})
			}, resilience.Config{})

			raw, err := client.FetchReplay(context.Background(), tc.kind, 31)
			require.NoError(t, err)
			assert.Equal(t, []byte{1, 2, 3}, raw)
		})
	}
}

func TestFetchReplay_EmptyReplyIsNotAnError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {}, resilience.Config{})
	raw, err := client.FetchReplay(context.Background(), highscoreable.KindLevel, 5)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"scores":[]}`))
	}, resilience.Config{})

	entries, err := client.FetchScores(context.Background(), highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 1})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, resilience.Config{})

	_, err := client.FetchReplay(context.Background(), highscoreable.KindLevel, 5)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_BreakerOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, resilience.Config{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Hour})

	ref := highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 1}
	_, err := client.FetchScores(context.Background(), ref)
	require.Error(t, err)
	assert.False(t, errors.Is(err, usecase.ErrDependencyUnavailable))

	_, err = client.FetchScores(context.Background(), ref)
	assert.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRedact(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://x/get_scores?steam_auth=&steam_id=REDACTED&level_id=1",
		redact("http://x/get_scores?steam_auth=&steam_id=7656119&level_id=1"))
}
