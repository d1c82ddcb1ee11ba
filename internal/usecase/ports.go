package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
)

// ScoreSource fetches the raw top scores of a highscoreable from the game
// server.
type ScoreSource interface {
	FetchScores(ctx context.Context, ref highscoreable.Ref) ([]leaderboard.Entry, error)
}

// ReplaySource fetches a raw get_replay reply. An empty reply without
// error means the server no longer has the replay.
type ReplaySource interface {
	FetchReplay(ctx context.Context, kind highscoreable.Kind, replayID int64) ([]byte, error)
}

// Recorder receives pipeline measurements.
type Recorder interface {
	ObserveRefresh(kind highscoreable.Kind, outcome string, elapsed time.Duration)
	CountFiltered(reason string, n int)
	CountSubmission(outcome string)
	CountDecodeFailure(codec string)
	CountGoldWarning()
}

const (
	outcomeSuccess  = "success"
	outcomeFailed   = "failed"
	outcomeImproved = "improved"
	outcomeKept     = "kept"
	outcomeRejected = "rejected"
)

type noopRecorder struct{}

func NewNoopRecorder() Recorder { return noopRecorder{} }

func (noopRecorder) ObserveRefresh(highscoreable.Kind, string, time.Duration) {}
func (noopRecorder) CountFiltered(string, int)                               {}
func (noopRecorder) CountSubmission(string)                                  {}
func (noopRecorder) CountDecodeFailure(string)                               {}
func (noopRecorder) CountGoldWarning()                                       {}

func normalizeWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}

// taskPool is the part of *ants.Pool the batch jobs use.
type taskPool interface {
	Submit(task func()) error
}

// submitAll runs task(i) for every i in [0, n) on the pool. When a
// submit fails it waits for the tasks already running before returning.
func submitAll(pool taskPool, n int, task func(i int)) error {
	var workers sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			task(i)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()
	return nil
}
