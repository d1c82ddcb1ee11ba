package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/nleaderboard/internal/domain/score"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
)

type LeaderboardConfig struct {
	MaxWorkers      int
	ChangeTolerance time.Duration
}

type LeaderboardService struct {
	highscoreables highscoreable.Repository
	scores         score.Repository
	store          score.Store
	source         ScoreSource
	policy         leaderboard.Policy
	cfg            LeaderboardConfig
	recorder       Recorder
	logger         *logging.Logger
}

func NewLeaderboardService(
	highscoreables highscoreable.Repository,
	scores score.Repository,
	store score.Store,
	source ScoreSource,
	policy leaderboard.Policy,
	cfg LeaderboardConfig,
	recorder Recorder,
	logger *logging.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	if recorder == nil {
		recorder = NewNoopRecorder()
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.ChangeTolerance <= 0 {
		cfg.ChangeTolerance = archive.DefaultChangeTolerance
	}

	return &LeaderboardService{
		highscoreables: highscoreables,
		scores:         scores,
		store:          store,
		source:         source,
		policy:         policy,
		cfg:            cfg,
		recorder:       recorder,
		logger:         logger,
	}
}

type RefreshResult struct {
	Kind     highscoreable.Kind     `json:"kind"`
	ID       int64                  `json:"id"`
	Scores   int                    `json:"scores"`
	Archived int                    `json:"archived"`
	Filtered leaderboard.CleanReport `json:"filtered"`
}

type RefreshAllResult struct {
	TaskCount    int             `json:"task_count"`
	SuccessCount int             `json:"success_count"`
	FailedCount  int             `json:"failed_count"`
	WorkerCount  int             `json:"worker_count"`
	Results      []RefreshResult `json:"results"`
}

func (s *LeaderboardService) Current(ctx context.Context, ref highscoreable.Ref) ([]score.Score, error) {
	ctx, span := startSpan(ctx, "usecase.LeaderboardService.Current", boardAttrs(ref)...)
	defer span.End()

	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	items, err := s.scores.ListByRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return items, nil
}

// Refresh downloads the current board of one highscoreable and applies it.
func (s *LeaderboardService) Refresh(ctx context.Context, ref highscoreable.Ref) (RefreshResult, error) {
	ctx, span := startSpan(ctx, "usecase.LeaderboardService.Refresh", boardAttrs(ref)...)
	defer span.End()

	if err := ref.Validate(); err != nil {
		return RefreshResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if ref.Kind.IsMappack() {
		return RefreshResult{}, fmt.Errorf("%w: mappack boards are built from submissions", ErrInvalidInput)
	}
	if s.source == nil {
		return RefreshResult{}, fmt.Errorf("%w: score source is not configured", ErrDependencyUnavailable)
	}

	h, exists, err := s.highscoreables.Get(ctx, ref)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("get highscoreable: %w", err)
	}
	if !exists {
		return RefreshResult{}, fmt.Errorf("%w: highscoreable=%s", ErrNotFound, ref)
	}

	entries, err := s.source.FetchScores(ctx, ref)
	if err != nil {
		return RefreshResult{}, failSpan(span, fmt.Errorf("%w: fetch scores for %s: %v", ErrDependencyUnavailable, ref, err))
	}
	return s.Apply(ctx, h, entries)
}

// Apply ranks a raw board and persists it together with any new
// archives in a single transaction on the highscoreable.
func (s *LeaderboardService) Apply(ctx context.Context, h highscoreable.Highscoreable, entries []leaderboard.Entry) (RefreshResult, error) {
	ctx, span := startSpan(ctx, "usecase.LeaderboardService.Apply", boardAttrs(h.Ref())...)
	defer span.End()

	start := time.Now()
	ref := h.Ref()
	meta := h.Info()
	result := RefreshResult{Kind: ref.Kind, ID: ref.ID}

	err := s.store.WithinBoard(ctx, ref, func(ctx context.Context, tx score.Tx) error {
		var holders map[int64]struct{}
		if ref.Kind.Archived() {
			history, err := tx.ListArchives(ctx, ref)
			if err != nil {
				return fmt.Errorf("list archives: %w", err)
			}
			// Holders are taken before this refresh writes anything.
			holders = archive.HolderSet(archive.Zeroths(history, s.cfg.ChangeTolerance, tx.Now()))
		}

		ranked, report := leaderboard.Rank(ref, entries, s.policy, holders, score.Slots)
		result.Filtered = report

		rows := make([]score.Score, 0, len(ranked))
		for _, r := range ranked {
			p, err := tx.FindOrCreatePlayer(ctx, r.UserID, r.UserName)
			if err != nil {
				return fmt.Errorf("find player %d: %w", r.UserID, err)
			}

			row := score.Score{
				Ref:        ref,
				Rank:       r.Rank,
				TiedRank:   r.TiedRank,
				Score:      r.Score,
				PlayerID:   p.ID,
				MetanetID:  p.MetanetID,
				PlayerName: p.Name,
				ReplayID:   r.ReplayID,
				Tab:        meta.Tab,
				Cool:       r.Cool,
				Star:       r.Star,
			}
			if ref.Kind == highscoreable.KindUserlevel {
				row.Score = score.ToFrames(r.Score)
			}
			rows = append(rows, row)

			if !ref.Kind.Archived() {
				continue
			}
			archived, err := s.archiveRun(ctx, tx, row)
			if err != nil {
				return err
			}
			if archived {
				result.Archived++
			}
		}

		if err := tx.ReplaceScores(ctx, ref, rows); err != nil {
			return fmt.Errorf("replace scores: %w", err)
		}
		result.Scores = len(rows)
		return nil
	})
	if err != nil {
		s.recorder.ObserveRefresh(ref.Kind, outcomeFailed, time.Since(start))
		return RefreshResult{}, fmt.Errorf("refresh %s: %w", ref, err)
	}
	s.recorder.ObserveRefresh(ref.Kind, outcomeSuccess, time.Since(start))
	s.recordFiltered(result.Filtered)

	if result.Filtered.Dropped() > 0 {
		s.logger.InfoContext(ctx, "filtered scores",
			"highscoreable", ref.String(),
			"blacklisted", result.Filtered.Blacklisted,
			"denied", result.Filtered.Denied,
			"implausible", result.Filtered.Implausible,
		)
	}

	if ul, ok := h.(highscoreable.Userlevel); ok && !ul.Scored && result.Scores > 0 {
		ul.Scored = true
		if err := s.highscoreables.Upsert(ctx, []highscoreable.Highscoreable{ul}); err != nil {
			return result, fmt.Errorf("mark userlevel scored: %w", err)
		}
	}
	return result, nil
}

// archiveRun records a run that is not archived yet and retires the
// player's previous archive on the same highscoreable.
func (s *LeaderboardService) archiveRun(ctx context.Context, tx score.Tx, row score.Score) (bool, error) {
	exists, err := tx.ArchiveExists(ctx, row.Ref.Kind, row.ReplayID)
	if err != nil {
		return false, fmt.Errorf("check archive %d: %w", row.ReplayID, err)
	}
	if exists {
		return false, nil
	}

	if err := tx.ExpireArchives(ctx, row.Ref, row.PlayerID); err != nil {
		return false, fmt.Errorf("expire archives of player %d: %w", row.PlayerID, err)
	}
	id, err := tx.InsertArchive(ctx, archive.Archive{
		Ref:        row.Ref,
		PlayerID:   row.PlayerID,
		MetanetID:  row.MetanetID,
		ReplayID:   row.ReplayID,
		Score:      row.Frames(),
		Date:       tx.Now(),
		Tab:        row.Tab,
		Framecount: -1,
		Gold:       -1,
	})
	if err != nil {
		return false, fmt.Errorf("insert archive %d: %w", row.ReplayID, err)
	}
	if err := tx.InsertDemo(ctx, archive.Demo{ID: id}); err != nil {
		return false, fmt.Errorf("insert demo %d: %w", id, err)
	}
	return true, nil
}

func (s *LeaderboardService) recordFiltered(report leaderboard.CleanReport) {
	s.recorder.CountFiltered("blacklisted", report.Blacklisted)
	s.recorder.CountFiltered("denied", report.Denied)
	s.recorder.CountFiltered("implausible", report.Implausible)
}

// RefreshAll refreshes every highscoreable of the given kinds on a
// bounded worker pool. A failing board is logged and counted; it never
// stops the batch.
func (s *LeaderboardService) RefreshAll(ctx context.Context, kinds []highscoreable.Kind) (RefreshAllResult, error) {
	ctx, span := startSpan(ctx, "usecase.LeaderboardService.RefreshAll")
	defer span.End()

	refs := make([]highscoreable.Ref, 0)
	for _, kind := range kinds {
		if kind.IsMappack() {
			return RefreshAllResult{}, fmt.Errorf("%w: mappack boards are built from submissions", ErrInvalidInput)
		}
		items, err := s.highscoreables.ListByKind(ctx, kind)
		if err != nil {
			return RefreshAllResult{}, fmt.Errorf("list %s: %w", kind, err)
		}
		for _, item := range items {
			refs = append(refs, item.Ref())
		}
	}

	workerCount := normalizeWorkerCount(s.cfg.MaxWorkers, len(refs))
	result := RefreshAllResult{
		TaskCount:   len(refs),
		WorkerCount: workerCount,
		Results:     make([]RefreshResult, 0, len(refs)),
	}
	if len(refs) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshAllResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan RefreshResult, len(refs))
	var successCount atomic.Int32
	var failedCount atomic.Int32

	err = submitAll(pool, len(refs), func(i int) {
		ref := refs[i]
		row, err := s.Refresh(ctx, ref)
		if err != nil {
			failedCount.Add(1)
			s.logger.WarnContext(ctx, "refresh highscoreable failed", "highscoreable", ref.String(), "error", err)
			return
		}
		successCount.Add(1)
		results <- row
	})
	if err != nil {
		return RefreshAllResult{}, err
	}
	close(results)

	for row := range results {
		result.Results = append(result.Results, row)
	}
	sort.SliceStable(result.Results, func(i, j int) bool {
		if result.Results[i].Kind != result.Results[j].Kind {
			return result.Results[i].Kind < result.Results[j].Kind
		}
		return result.Results[i].ID < result.Results[j].ID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	return result, nil
}
