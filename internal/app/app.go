package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nleaderboard/internal/config"
	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/mappack"
	"github.com/riskibarqy/nleaderboard/internal/domain/player"
	"github.com/riskibarqy/nleaderboard/internal/domain/score"
	cacherepo "github.com/riskibarqy/nleaderboard/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/nleaderboard/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nleaderboard/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/nleaderboard/internal/infrastructure/upstream"
	"github.com/riskibarqy/nleaderboard/internal/interfaces/httpapi"
	"github.com/riskibarqy/nleaderboard/internal/observability"
	"github.com/riskibarqy/nleaderboard/internal/platform/cache"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/riskibarqy/nleaderboard/internal/platform/resilience"
	"github.com/riskibarqy/nleaderboard/internal/usecase"
)

// Container holds the services shared by the API server and the CLI.
type Container struct {
	Leaderboard *usecase.LeaderboardService
	History     *usecase.HistoryService
	Submission  *usecase.SubmissionService
	Demos       *usecase.DemoService
	Sanitizer   *usecase.SanitizeService
	Metrics     *observability.Metrics

	db *sqlx.DB
}

type storage struct {
	highscoreables highscoreable.Repository
	players        player.Repository
	scores         scoreStorage
	archives       archiveStorage
	mappack        mappackStorage
}

type scoreStorage interface {
	score.Repository
	score.Store
}

type archiveStorage interface {
	archive.Repository
	archive.Maintenance
}

type mappackStorage interface {
	mappack.Repository
	mappack.Store
}

func NewContainer(cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	c := &Container{}
	store, err := c.openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	var recorder usecase.Recorder
	var cacheOpts []cache.Option
	if cfg.MetricsEnabled {
		c.Metrics = observability.NewMetrics()
		recorder = c.Metrics
		cacheOpts = append(cacheOpts, cache.WithObserver(c.Metrics))
	}
	if cfg.CacheEnabled {
		store = withCache(store, cache.NewStore(cfg.CacheTTL, cacheOpts...))
		logger.Info("repository cache enabled", "ttl", cfg.CacheTTL.String())
	}

	var (
		scoreSource  usecase.ScoreSource
		replaySource usecase.ReplaySource
	)
	breakerLog := logger.Named("breaker")
	breakerCfg := resilience.Config{
		Enabled:          cfg.UpstreamCircuitEnabled,
		Name:             "game_server",
		FailureThreshold: cfg.UpstreamCircuitFailureCount,
		OpenTimeout:      cfg.UpstreamCircuitOpenTimeout,
		HalfOpenProbes:   cfg.UpstreamCircuitHalfOpenProbes,
		OnTransition: func(name string, from, to resilience.State) {
			breakerLog.Warn("circuit breaker state changed", "breaker", name, "from", string(from), "to", string(to))
			if c.Metrics != nil {
				c.Metrics.CountBreakerTransition(name, string(to))
			}
		},
	}
	if cfg.UpstreamEnabled {
		client := upstream.NewClient(upstream.ClientConfig{
			BaseURL:        cfg.UpstreamBaseURL,
			SteamID:        cfg.UpstreamSteamID,
			Timeout:        cfg.UpstreamTimeout,
			MaxRetries:     cfg.UpstreamMaxRetries,
			Logger:         logger.Named("upstream"),
			CircuitBreaker: breakerCfg,
		})
		scoreSource, replaySource = client, client
		logger.Info("game server client enabled", "base_url", cfg.UpstreamBaseURL)
	}

	c.Leaderboard = usecase.NewLeaderboardService(
		store.highscoreables,
		store.scores,
		store.scores,
		scoreSource,
		policy,
		usecase.LeaderboardConfig{
			MaxWorkers:      cfg.RefreshMaxWorkers,
			ChangeTolerance: cfg.HistoryChangeTolerance,
		},
		recorder,
		logger.Named("leaderboard"),
	)
	c.History = usecase.NewHistoryService(store.archives, usecase.HistoryConfig{
		ChangeTolerance: cfg.HistoryChangeTolerance,
	})
	c.Submission = usecase.NewSubmissionService(
		store.highscoreables,
		store.players,
		store.mappack,
		store.mappack,
		policy,
		recorder,
		logger.Named("mappack"),
	)
	c.Demos = usecase.NewDemoService(
		store.archives,
		replaySource,
		replayBreaker(breakerCfg),
		usecase.DemoConfig{
			MaxWorkers: cfg.RefreshMaxWorkers,
			BatchSize:  cfg.DemoBatchSize,
		},
		recorder,
		logger.Named("demo"),
	)
	c.Sanitizer = usecase.NewSanitizeService(store.archives, policy, logger.Named("sanitize"))

	return c, nil
}

func (c *Container) openStorage(cfg config.Config, logger *logging.Logger) (storage, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		dsn, err := postgres.PrepareDSN(cfg.DBURL, cfg.DBDisablePreparedBinary)
		if err != nil {
			return storage{}, fmt.Errorf("DB_URL: %w", err)
		}
		db, err := postgres.Open(context.Background(), dsn, postgres.OpenOptions{
			DisablePreparedBinary: cfg.DBDisablePreparedBinary,
			Trace:                 cfg.DBTraceEnabled,
		})
		if err != nil {
			return storage{}, err
		}
		c.db = db
		logger.Info("postgres storage enabled", "trace", cfg.DBTraceEnabled)
		return storage{
			highscoreables: postgres.NewHighscoreableRepository(db),
			players:        postgres.NewPlayerRepository(db),
			scores:         postgres.NewScoreRepository(db),
			archives:       postgres.NewArchiveRepository(db),
			mappack:        postgres.NewMappackRepository(db),
		}, nil
	default:
		db := memory.NewDatabase(memory.SeedCatalog())
		logger.Info("memory storage enabled")
		return storage{
			highscoreables: memory.NewHighscoreableRepository(db),
			players:        memory.NewPlayerRepository(db),
			scores:         memory.NewScoreRepository(db),
			archives:       memory.NewArchiveRepository(db),
			mappack:        memory.NewMappackRepository(db),
		}, nil
	}
}

// replayBreaker gives the backfill its own breaker so a failing batch
// does not block board refreshes.
func replayBreaker(cfg resilience.Config) *resilience.Breaker {
	cfg.Name = "replay_backfill"
	return cfg.New()
}

func withCache(s storage, store *cache.Store) storage {
	s.highscoreables = cacherepo.NewHighscoreableRepository(s.highscoreables, store)
	s.scores = cacherepo.NewScoreRepository(s.scores, store)
	s.archives = cacherepo.NewArchiveRepository(s.archives, store)
	return s
}

func (c *Container) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func NewHTTPServer(cfg config.Config, c *Container, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var metrics http.Handler
	if c.Metrics != nil {
		metrics = c.Metrics.Handler()
	}

	handler := httpapi.NewHandler(c.Leaderboard, c.History, c.Submission, logger.Named("http"))
	router := httpapi.NewRouter(handler, metrics, logger.Named("http"), cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
