package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"go.opentelemetry.io/otel/attribute"
)

type HistoryConfig struct {
	ChangeTolerance time.Duration
}

// HistoryService answers questions about past states of a board from its
// archive.
type HistoryService struct {
	archives archive.Repository
	cfg      HistoryConfig
	now      func() time.Time
}

func NewHistoryService(archives archive.Repository, cfg HistoryConfig) *HistoryService {
	if cfg.ChangeTolerance <= 0 {
		cfg.ChangeTolerance = archive.DefaultChangeTolerance
	}
	return &HistoryService{
		archives: archives,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *HistoryService) Snapshot(ctx context.Context, ref highscoreable.Ref, at time.Time) ([]archive.Archive, error) {
	ctx, span := startSpan(ctx, "usecase.HistoryService.Snapshot", boardAttrs(ref)...)
	defer span.End()

	rows, err := s.history(ctx, ref)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = s.now()
	}
	return archive.Snapshot(rows, at), nil
}

func (s *HistoryService) Changes(ctx context.Context, ref highscoreable.Ref) ([]time.Time, error) {
	ctx, span := startSpan(ctx, "usecase.HistoryService.Changes", boardAttrs(ref)...)
	defer span.End()

	rows, err := s.history(ctx, ref)
	if err != nil {
		return nil, err
	}
	return archive.Changes(rows, s.cfg.ChangeTolerance), nil
}

// Zeroths lists every run that took 0th, oldest first.
func (s *HistoryService) Zeroths(ctx context.Context, ref highscoreable.Ref) ([]archive.Archive, error) {
	ctx, span := startSpan(ctx, "usecase.HistoryService.Zeroths", boardAttrs(ref)...)
	defer span.End()

	rows, err := s.history(ctx, ref)
	if err != nil {
		return nil, err
	}
	return archive.Zeroths(rows, s.cfg.ChangeTolerance, s.now()), nil
}

// FindRank is the rank the archive's player held at the given instant.
func (s *HistoryService) FindRank(ctx context.Context, archiveID int64, at time.Time) (int, error) {
	ctx, span := startSpan(ctx, "usecase.HistoryService.FindRank", attribute.Int64("archive.id", archiveID))
	defer span.End()

	item, exists, err := s.archives.GetByID(ctx, archiveID)
	if err != nil {
		return 0, fmt.Errorf("get archive: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: archive=%d", ErrNotFound, archiveID)
	}
	rows, err := s.history(ctx, item.Ref)
	if err != nil {
		return 0, err
	}
	return archive.FindRank(rows, item.MetanetID, at), nil
}

func (s *HistoryService) history(ctx context.Context, ref highscoreable.Ref) ([]archive.Archive, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !ref.Kind.Archived() {
		return nil, fmt.Errorf("%w: %s boards keep no history", ErrInvalidInput, ref.Kind)
	}
	rows, err := s.archives.ListByRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	return rows, nil
}
