package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/nleaderboard/internal/codec/demo"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/nleaderboard/internal/domain/mappack"
	"github.com/riskibarqy/nleaderboard/internal/domain/player"
	"github.com/riskibarqy/nleaderboard/internal/domain/score"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// SubmissionInput is a run uploaded by a patched game client.
type SubmissionInput struct {
	UserID    int64
	UserName  string
	QueryType uint32
	LevelID   int64
	// Score is the completion time in thousandths of a second.
	Score int64
	// Demo is the compressed replay payload.
	Demo []byte
}

// SubmissionResult mirrors the reply the game client expects.
type SubmissionResult struct {
	Better   int    `json:"better"`
	Score    int64  `json:"score"`
	Rank     int    `json:"rank"`
	ReplayID int64  `json:"replay_id"`
	UserID   int64  `json:"user_id"`
	QT       uint32 `json:"qt"`
	LevelID  int64  `json:"level_id"`
}

type GoldReport struct {
	ScoreID    int64             `json:"score_id"`
	Ref        highscoreable.Ref `json:"-"`
	Target     string            `json:"target"`
	PlayerName string            `json:"player_name"`
	Gold       int               `json:"gold"`
	Implied    float64           `json:"implied"`
	Reason     string            `json:"reason"`
}

// SubmissionService ingests runs on mappack highscoreables, keeping the
// highscore and speedrun boards ranked.
type SubmissionService struct {
	highscoreables highscoreable.Repository
	players        player.Repository
	scores         mappack.Repository
	store          mappack.Store
	policy         leaderboard.Policy
	recorder       Recorder
	logger         *logging.Logger
	now            func() time.Time
}

func NewSubmissionService(
	highscoreables highscoreable.Repository,
	players player.Repository,
	scores mappack.Repository,
	store mappack.Store,
	policy leaderboard.Policy,
	recorder Recorder,
	logger *logging.Logger,
) *SubmissionService {
	if logger == nil {
		logger = logging.Default()
	}
	if recorder == nil {
		recorder = NewNoopRecorder()
	}
	return &SubmissionService{
		highscoreables: highscoreables,
		players:        players,
		scores:         scores,
		store:          store,
		policy:         policy,
		recorder:       recorder,
		logger:         logger,
		now:            time.Now,
	}
}

var mappackKinds = map[demo.Layout]highscoreable.Kind{
	demo.LayoutLevel:   highscoreable.KindMappackLevel,
	demo.LayoutEpisode: highscoreable.KindMappackEpisode,
	demo.LayoutStory:   highscoreable.KindMappackStory,
}

func (s *SubmissionService) Submit(ctx context.Context, input SubmissionInput) (SubmissionResult, error) {
	ctx, span := startSpan(ctx, "usecase.SubmissionService.Submit")
	defer span.End()

	if s.policy.Blacklisted(input.UserID, input.UserName) {
		s.recorder.CountSubmission(outcomeRejected)
		return SubmissionResult{}, failSpan(span, fmt.Errorf("%w: user=%d", ErrRejected, input.UserID))
	}
	if input.Score < 0 || len(input.Demo) == 0 {
		return SubmissionResult{}, fmt.Errorf("%w: score and demo are required", ErrInvalidInput)
	}

	layout, err := demo.LayoutForQT(input.QueryType)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ref := highscoreable.Ref{Kind: mappackKinds[layout], ID: input.LevelID}
	h, exists, err := s.highscoreables.Get(ctx, ref)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("get highscoreable: %w", err)
	}
	if !exists {
		return SubmissionResult{}, fmt.Errorf("%w: highscoreable=%s", ErrNotFound, ref)
	}
	mappackID, _ := highscoreable.MappackID(h)
	meta := h.Info()

	decoded, err := demo.Decode(input.Demo, layout)
	if err != nil {
		s.recorder.CountDecodeFailure("demo")
		return SubmissionResult{}, failSpan(span, fmt.Errorf("%w: decode demo: %v", ErrInvalidInput, err))
	}
	if err := demo.CheckInputs(decoded.Frames); err != nil {
		s.recorder.CountDecodeFailure("demo")
		return SubmissionResult{}, failSpan(span, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	encoded, err := demo.Encode(decoded.Frames)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("encode demo: %w", err)
	}

	scoreHS := score.ToFrames(input.Score)
	scoreSR := int64(decoded.Framecount())
	check := mappack.CheckGold(scoreHS, scoreSR, meta.Gold)
	if check.Suspicious {
		s.recorder.CountGoldWarning()
		s.logger.WarnContext(ctx, "potentially incorrect gold count",
			"highscoreable", ref.String(),
			"user_id", input.UserID,
			"implied_gold", check.Implied,
			"reason", check.Reason,
		)
	}

	p, err := s.players.FindOrCreate(ctx, input.UserID, input.UserName)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("find player: %w", err)
	}

	result := SubmissionResult{
		Score:    input.Score,
		Rank:     -1,
		ReplayID: -1,
		UserID:   input.UserID,
		QT:       input.QueryType,
		LevelID:  input.LevelID,
	}

	err = s.store.WithinBoard(ctx, ref, func(ctx context.Context, tx mappack.Tx) error {
		rows, err := tx.ListScores(ctx, ref)
		if err != nil {
			return fmt.Errorf("list scores: %w", err)
		}

		row := mappack.Score{
			MappackID:  mappackID,
			Ref:        ref,
			PlayerID:   p.ID,
			MetanetID:  p.MetanetID,
			PlayerName: p.Name,
			ScoreHS:    scoreHS,
			ScoreSR:    scoreSR,
			Gold:       check.Gold,
			Tab:        meta.Tab,
			Date:       s.now(),
		}

		improved := make([]mappack.Board, 0, len(mappack.Boards))
		for _, board := range mappack.Boards {
			if !mappack.Improves(rows, board, p.ID, row.Value(board)) {
				continue
			}
			improved = append(improved, board)
			if err := tx.Invalidate(ctx, ref, p.ID, board); err != nil {
				return fmt.Errorf("invalidate %s scores: %w", board, err)
			}
			rank, tied := mappack.PendingRank, mappack.PendingRank
			row.SetRank(board, &rank, &tied)
		}

		id, err := tx.InsertScore(ctx, row)
		if err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
		if err := tx.SaveDemo(ctx, id, encoded); err != nil {
			return fmt.Errorf("save demo: %w", err)
		}

		if len(improved) > 0 {
			result.Better = 1
			rows, err = tx.ListScores(ctx, ref)
			if err != nil {
				return fmt.Errorf("list scores: %w", err)
			}
			for _, board := range improved {
				if err := tx.UpdateRanks(ctx, board, mappack.Recompute(rows, board)); err != nil {
					return fmt.Errorf("update %s ranks: %w", board, err)
				}
			}
			rows, err = tx.ListScores(ctx, ref)
			if err != nil {
				return fmt.Errorf("list scores: %w", err)
			}
		}

		for _, board := range mappack.Boards {
			if best, ok := mappack.PlayerBest(rows, board, p.ID); ok {
				result.Rank = *best.Rank(board)
				result.ReplayID = best.ID
				break
			}
		}
		return nil
	})
	if err != nil {
		s.recorder.CountSubmission(outcomeFailed)
		return SubmissionResult{}, fmt.Errorf("submit to %s: %w", ref, err)
	}

	if result.Better == 1 {
		s.recorder.CountSubmission(outcomeImproved)
	} else {
		s.recorder.CountSubmission(outcomeKept)
	}
	s.logger.InfoContext(ctx, "mappack submission",
		"highscoreable", ref.String(),
		"user_id", input.UserID,
		"better", result.Better,
		"rank", result.Rank,
	)
	return result, nil
}

// Board returns the live rows of one mappack board ordered by rank.
func (s *SubmissionService) Board(ctx context.Context, ref highscoreable.Ref, board mappack.Board) ([]mappack.Score, error) {
	ctx, span := startSpan(ctx, "usecase.SubmissionService.Board", append(boardAttrs(ref), attribute.String("mappack.board", string(board)))...)
	defer span.End()

	if !ref.Kind.IsMappack() {
		return nil, fmt.Errorf("%w: %s is not a mappack kind", ErrInvalidInput, ref.Kind)
	}
	rows, err := s.scores.ListByRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	out := make([]mappack.Score, 0, len(rows))
	for _, u := range mappack.Recompute(rows, board) {
		for _, row := range rows {
			if row.ID == u.ID {
				out = append(out, row)
				break
			}
		}
	}
	return out, nil
}

// GoldCheck re-validates the gold of every score with id >= minID.
func (s *SubmissionService) GoldCheck(ctx context.Context, minID int64) ([]GoldReport, error) {
	ctx, span := startSpan(ctx, "usecase.SubmissionService.GoldCheck")
	defer span.End()

	rows, err := s.scores.ListFrom(ctx, minID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	known := make(map[highscoreable.Ref]int)
	out := make([]GoldReport, 0)
	for _, row := range rows {
		gold, ok := known[row.Ref]
		if !ok {
			h, exists, err := s.highscoreables.Get(ctx, row.Ref)
			if err != nil {
				return nil, fmt.Errorf("get highscoreable: %w", err)
			}
			if exists {
				gold = h.Info().Gold
			}
			known[row.Ref] = gold
		}

		check := mappack.CheckGold(row.ScoreHS, row.ScoreSR, gold)
		if !check.Suspicious {
			continue
		}
		out = append(out, GoldReport{
			ScoreID:    row.ID,
			Ref:        row.Ref,
			Target:     row.Ref.String(),
			PlayerName: row.PlayerName,
			Gold:       check.Gold,
			Implied:    check.Implied,
			Reason:     check.Reason,
		})
	}
	return out, nil
}

// Demo returns the stored frame arrays of a mappack score.
func (s *SubmissionService) Demo(ctx context.Context, scoreID int64) ([][]byte, error) {
	ctx, span := startSpan(ctx, "usecase.SubmissionService.Demo", attribute.Int64("mappack.score_id", scoreID))
	defer span.End()

	data, exists, err := s.scores.GetDemo(ctx, scoreID)
	if err != nil {
		return nil, fmt.Errorf("get demo: %w", err)
	}
	if !exists || len(data) == 0 {
		return nil, fmt.Errorf("%w: demo=%d", ErrNotFound, scoreID)
	}
	frames, err := demo.DecodeStored(data)
	if err != nil {
		return nil, fmt.Errorf("decode stored demo %d: %w", scoreID, err)
	}
	return frames, nil
}
