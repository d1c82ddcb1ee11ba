package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/nleaderboard/internal/codec/demo"
	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/riskibarqy/nleaderboard/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

type DemoConfig struct {
	MaxWorkers int
	BatchSize  int
}

// DemoService downloads the replays of archived runs and derives their
// frame count and gold.
type DemoService struct {
	archives archive.Repository
	replays  ReplaySource
	breaker  *resilience.Breaker
	cfg      DemoConfig
	recorder Recorder
	logger   *logging.Logger
}

func NewDemoService(
	archives archive.Repository,
	replays ReplaySource,
	breaker *resilience.Breaker,
	cfg DemoConfig,
	recorder Recorder,
	logger *logging.Logger,
) *DemoService {
	if logger == nil {
		logger = logging.Default()
	}
	if recorder == nil {
		recorder = NewNoopRecorder()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &DemoService{
		archives: archives,
		replays:  replays,
		breaker:  breaker,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger,
	}
}

type BackfillResult struct {
	Pending int `json:"pending"`
	Stored  int `json:"stored"`
	Lost    int `json:"lost"`
	Failed  int `json:"failed"`
}

// Attach stores the replay reply of one archive. An empty reply marks the
// archive lost.
func (s *DemoService) Attach(ctx context.Context, item archive.Archive, raw []byte) error {
	ctx, span := startSpan(ctx, "usecase.DemoService.Attach")
	defer span.End()

	if len(raw) == 0 {
		if err := s.archives.MarkLost(ctx, item.ID); err != nil {
			return fmt.Errorf("mark archive %d lost: %w", item.ID, err)
		}
		return nil
	}

	layout, err := demo.LayoutOf(item.Ref.Kind.LevelCount())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	replay, err := demo.ParseReplay(raw)
	if err != nil {
		s.recorder.CountDecodeFailure("demo")
		return fmt.Errorf("%w: replay %d: %v", ErrInvalidInput, item.ReplayID, err)
	}
	decoded, err := demo.Decode(replay.Payload, layout)
	if err != nil {
		s.recorder.CountDecodeFailure("demo")
		return fmt.Errorf("%w: replay %d: %v", ErrInvalidInput, item.ReplayID, err)
	}

	encoded, err := demo.Encode(decoded.Frames)
	if err != nil {
		return fmt.Errorf("encode demo %d: %w", item.ID, err)
	}
	framecount := decoded.Framecount()
	if err := s.archives.SaveDemo(ctx, archive.Demo{ID: item.ID, Data: encoded}, framecount, decoded.Gold(item.Score)); err != nil {
		return fmt.Errorf("save demo %d: %w", item.ID, err)
	}
	return nil
}

// Backfill downloads up to limit pending demos in parallel.
func (s *DemoService) Backfill(ctx context.Context, limit int) (BackfillResult, error) {
	ctx, span := startSpan(ctx, "usecase.DemoService.Backfill")
	defer span.End()

	if s.replays == nil {
		return BackfillResult{}, fmt.Errorf("%w: replay source is not configured", ErrDependencyUnavailable)
	}
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	pending, err := s.archives.ListPendingDemos(ctx, limit)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("list pending demos: %w", err)
	}
	result := BackfillResult{Pending: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(normalizeWorkerCount(s.cfg.MaxWorkers, len(pending)))
	if err != nil {
		return BackfillResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var stored, lost, failed atomic.Int32
	err = submitAll(pool, len(pending), func(i int) {
		item := pending[i]
		var raw []byte
		err := s.breaker.Do(func() error {
			var fetchErr error
			raw, fetchErr = s.replays.FetchReplay(ctx, item.Ref.Kind, item.ReplayID)
			return fetchErr
		}, nil)
		if err == nil {
			err = s.Attach(ctx, item, raw)
		}
		switch {
		case err != nil:
			failed.Add(1)
			s.logger.WarnContext(ctx, "download demo failed", "archive_id", item.ID, "replay_id", item.ReplayID, "error", err)
		case len(raw) == 0:
			lost.Add(1)
		default:
			stored.Add(1)
		}
	})
	if err != nil {
		return BackfillResult{}, err
	}

	result.Stored = int(stored.Load())
	result.Lost = int(lost.Load())
	result.Failed = int(failed.Load())
	return result, nil
}

// Frames returns the stored frame arrays of an archive, one per level.
func (s *DemoService) Frames(ctx context.Context, archiveID int64) ([][]byte, error) {
	ctx, span := startSpan(ctx, "usecase.DemoService.Frames", attribute.Int64("archive.id", archiveID))
	defer span.End()

	stored, exists, err := s.archives.GetDemo(ctx, archiveID)
	if err != nil {
		return nil, fmt.Errorf("get demo: %w", err)
	}
	if !exists || stored.Pending() {
		return nil, fmt.Errorf("%w: demo=%d", ErrNotFound, archiveID)
	}
	frames, err := demo.DecodeStored(stored.Data)
	if err != nil {
		return nil, fmt.Errorf("decode stored demo %d: %w", archiveID, err)
	}
	return frames, nil
}
