package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/nleaderboard/internal/codec/demo"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/riskibarqy/nleaderboard/internal/platform/resilience"
	"github.com/riskibarqy/nleaderboard/internal/usecase"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL = "https://dojo.nplusplus.ninja/prod/steam"
	maxReplayBytes = 1 << 20
	maxScoresBytes = 2 << 20
)

// inactiveReply is what the server answers when the Steam session behind
// steam_id has expired.
var inactiveReply = []byte("-1337")

var steamIDParamRegex = regexp.MustCompile(`steam_id=[^&\s"']+`)
var errTransient = crerr.New("game server transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	SteamID        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.Config
}

// Client talks to the game server's get_scores and get_replay endpoints.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	steamID      string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logging.Logger
	breaker      *resilience.Breaker
	flight       singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		steamID:      strings.TrimSpace(cfg.SteamID),
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
		logger:       logger,
		breaker:      cfg.CircuitBreaker.New(),
	}
}

type scoresEnvelope struct {
	Scores []leaderboard.Entry `json:"scores"`
}

// FetchScores downloads the raw top 20 of a highscoreable.
func (c *Client) FetchScores(ctx context.Context, ref highscoreable.Ref) ([]leaderboard.Entry, error) {
	param, err := scoresParam(ref.Kind)
	if err != nil {
		return nil, err
	}
	values := c.baseValues()
	values.Set(param, strconv.FormatInt(ref.ID, 10))

	raw, err := c.get(ctx, "/get_scores", values, maxScoresBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch scores %s: %w", ref, err)
	}
	if bytes.Equal(bytes.TrimSpace(raw), inactiveReply) {
		return nil, fmt.Errorf("%w: steam session is inactive", usecase.ErrDependencyUnavailable)
	}

	var envelope scoresEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode scores %s: %w", ref, err)
	}
	return envelope.Scores, nil
}

// FetchReplay downloads a get_replay reply. The server answers with an
// empty body for replays it no longer has.
func (c *Client) FetchReplay(ctx context.Context, kind highscoreable.Kind, replayID int64) ([]byte, error) {
	if kind.IsMappack() {
		return nil, fmt.Errorf("%w: %s replays are not served upstream", usecase.ErrInvalidInput, kind)
	}
	layout, err := demo.LayoutOf(kind.LevelCount())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	values := c.baseValues()
	values.Set("replay_id", strconv.FormatInt(replayID, 10))
	values.Set("qt", strconv.FormatUint(uint64(layout.QueryType()), 10))

	raw, err := c.get(ctx, "/get_replay", values, maxReplayBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch replay %s:%d: %w", kind, replayID, err)
	}
	if bytes.Equal(raw, inactiveReply) {
		return nil, fmt.Errorf("%w: steam session is inactive", usecase.ErrDependencyUnavailable)
	}
	return raw, nil
}

func scoresParam(kind highscoreable.Kind) (string, error) {
	switch kind {
	case highscoreable.KindLevel, highscoreable.KindUserlevel:
		return "level_id", nil
	case highscoreable.KindEpisode:
		return "episode_id", nil
	case highscoreable.KindStory:
		return "story_id", nil
	default:
		return "", fmt.Errorf("%w: %s boards are not served upstream", usecase.ErrInvalidInput, kind)
	}
}

func (c *Client) baseValues() url.Values {
	values := url.Values{}
	values.Set("steam_id", c.steamID)
	values.Set("steam_auth", "")
	return values
}

func (c *Client) get(ctx context.Context, path string, values url.Values, limit int64) ([]byte, error) {
	fullURL := c.baseURL + path + "?" + values.Encode()

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		var raw []byte
		err := c.breaker.Do(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, fullURL, limit)
			return reqErr
		}, isPermanent)
		return raw, err
	})
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "game server circuit breaker rejected request", "state", c.breaker.State())
		return nil, fmt.Errorf("%w: game server is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, limit int64) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errTransient, redact(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, limit))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: server status=%d body=%s", errTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("server status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "game server request failed", "url", redact(fullURL), "error", lastErr)
	return nil, lastErr
}

// isPermanent reports errors the breaker should not count: client-side
// status codes mean the server is up.
func isPermanent(err error) bool {
	return err != nil && !crerr.Is(err, errTransient) && !crerr.Is(err, context.DeadlineExceeded)
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(raw))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}

func redact(value string) string {
	return steamIDParamRegex.ReplaceAllString(value, "steam_id=REDACTED")
}
