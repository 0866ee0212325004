package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hailam/rayfish/internal/board"
)

// ErrJobCancelled is returned by Wait for a job that was cancelled.
var ErrJobCancelled = errors.New("engine: search cancelled")

// Job is a search running on its own goroutine against a private copy of the
// position. Its result is delivered once; a cancelled job never delivers.
type Job struct {
	done       chan struct{}
	cancel     chan struct{}
	cancelOnce sync.Once
	halt       atomic.Bool // searcher stop flag
	cancelled  atomic.Bool
	result     Result
}

// Go starts a search of pos in the background. pos is copied before Go
// returns, so the caller may keep mutating it. The job uses its own
// transposition table of the engine's configured size.
func (e *Engine) Go(pos *board.Position, limits SearchLimits) *Job {
	j := &Job{
		done:   make(chan struct{}),
		cancel: make(chan struct{}),
	}
	snapshot := pos.Copy()
	searcher := NewSearcher(NewTranspositionTable(e.ttSizeMB), &j.halt)
	onInfo := e.OnInfo

	go func() {
		result := searcher.Run(snapshot, limits, func(info SearchInfo) {
			if onInfo != nil && !j.cancelled.Load() {
				onInfo(info)
			}
		})
		if j.cancelled.Load() {
			return
		}
		j.result = result
		close(j.done)
	}()
	return j
}

// Poll reports whether the result is ready without blocking.
func (j *Job) Poll() (Result, bool) {
	if j.cancelled.Load() {
		return Result{}, false
	}
	select {
	case <-j.done:
		return j.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the result is ready, the job is cancelled or ctx is done.
func (j *Job) Wait(ctx context.Context) (Result, error) {
	select {
	case <-j.done:
		if j.cancelled.Load() {
			return Result{}, ErrJobCancelled
		}
		return j.result, nil
	case <-j.cancel:
		return Result{}, ErrJobCancelled
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Stop asks the search to finish early. The job still delivers, reporting
// its deepest completed iteration (NoMove if none completed).
func (j *Job) Stop() {
	j.halt.Store(true)
}

// Cancel abandons the job. The worker stops at its next node and its result
// is discarded. Cancel is safe to call more than once and from any goroutine.
func (j *Job) Cancel() {
	j.cancelOnce.Do(func() {
		j.cancelled.Store(true)
		j.halt.Store(true)
		close(j.cancel)
	})
}
