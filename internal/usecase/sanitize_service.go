package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

// SanitizeReport counts the rows removed per category.
type SanitizeReport struct {
	Scores         int `json:"scores"`
	Archives       int `json:"archives"`
	DeniedArchives int `json:"denied_archives"`
	Duplicates     int `json:"duplicates"`
	OrphanDemos    int `json:"orphan_demos"`
	Players        int `json:"players"`
}

// SanitizeService removes data that the current policy would have
// filtered, so that history and rankings agree with it.
type SanitizeService struct {
	maintenance archive.Maintenance
	policy      leaderboard.Policy
	logger      *logging.Logger
}

func NewSanitizeService(maintenance archive.Maintenance, policy leaderboard.Policy, logger *logging.Logger) *SanitizeService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SanitizeService{
		maintenance: maintenance,
		policy:      policy,
		logger:      logger,
	}
}

func (s *SanitizeService) Sanitize(ctx context.Context) (SanitizeReport, error) {
	ctx, span := startSpan(ctx, "usecase.SanitizeService.Sanitize")
	defer span.End()

	var report SanitizeReport
	ids := sortedIDs(s.policy.BlacklistedIDs)

	// The blacklist and deny list passes touch disjoint rows.
	p := pool.New().WithErrors().WithContext(ctx)
	if len(ids) > 0 {
		p.Go(func(ctx context.Context) error {
			n, err := s.maintenance.DeleteScoresByMetanetIDs(ctx, ids)
			if err != nil {
				return fmt.Errorf("delete blacklisted scores: %w", err)
			}
			report.Scores = n
			return nil
		})
		p.Go(func(ctx context.Context) error {
			n, err := s.maintenance.DeleteArchivesByMetanetIDs(ctx, ids)
			if err != nil {
				return fmt.Errorf("delete blacklisted archives: %w", err)
			}
			report.Archives = n
			return nil
		})
	}

	denied := make([]int, len(highscoreable.AllKinds))
	for i, kind := range highscoreable.AllKinds {
		i, kind := i, kind
		replayIDs := sortedIDs(s.policy.DeniedReplays[kind])
		if len(replayIDs) == 0 {
			continue
		}
		p.Go(func(ctx context.Context) error {
			n, err := s.maintenance.DeleteArchivesByReplayIDs(ctx, kind, replayIDs)
			if err != nil {
				return fmt.Errorf("delete denied %s archives: %w", kind, err)
			}
			denied[i] = n
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return report, err
	}
	for _, n := range denied {
		report.DeniedArchives += n
	}

	n, err := s.maintenance.DeleteDuplicateArchives(ctx)
	if err != nil {
		return report, fmt.Errorf("delete duplicate archives: %w", err)
	}
	report.Duplicates = n

	if n, err = s.maintenance.DeleteOrphanDemos(ctx); err != nil {
		return report, fmt.Errorf("delete orphan demos: %w", err)
	}
	report.OrphanDemos = n

	if len(ids) > 0 {
		if n, err = s.maintenance.DeletePlayersByMetanetIDs(ctx, ids); err != nil {
			return report, fmt.Errorf("delete blacklisted players: %w", err)
		}
		report.Players = n
	}

	s.logger.InfoContext(ctx, "sanitized database",
		"scores", report.Scores,
		"archives", report.Archives,
		"denied_archives", report.DeniedArchives,
		"duplicates", report.Duplicates,
		"orphan_demos", report.OrphanDemos,
		"players", report.Players,
	)
	return report, nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
