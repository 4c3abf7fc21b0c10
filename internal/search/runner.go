package search

import (
	"context"
	"sync"

	"github.com/kk-code-lab/rview/internal/bytesource"
)

// Event is delivered by Runner. Exactly one event per run has Done set.
type Event struct {
	Progress int
	Done     bool
	Result   Result
	Err      error
}

// Runner executes one search at a time on a background goroutine. Starting a
// new search cancels the previous one.
type Runner struct {
	Engine Engine

	cancelMu sync.Mutex
	cancel   context.CancelFunc
	token    int
	wg       sync.WaitGroup
}

// Start launches a search and returns its event stream. Progress events are
// dropped while the consumer is behind. The last buffer slot is kept for the
// final event, so a run finishes even if nobody reads the stream.
func (r *Runner) Start(ctx context.Context, src bytesource.Source, start int64, req Request, mode string) <-chan Event {
	r.Cancel()

	ctx, cancel := context.WithCancel(ctx)
	token := r.setCancel(cancel)
	events := make(chan Event, 16)

	engine := r.Engine
	progressFn := engine.OnProgress
	engine.OnProgress = func(permille int) {
		if progressFn != nil {
			progressFn(permille)
		}
		// Only this goroutine sends, so the length check cannot race.
		if len(events) < cap(events)-1 {
			events <- Event{Progress: permille}
		}
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(events)
		defer r.clearCancel(token)
		defer cancel()

		res, err := engine.Search(ctx, src, start, req, mode)
		final := Event{Done: true, Result: res, Err: err}
		if err == nil && res.Outcome != Cancelled {
			final.Progress = 1000
		}
		events <- final
	}()
	return events
}

// Cancel stops the in-flight search, if any.
func (r *Runner) Cancel() {
	r.cancelMu.Lock()
	defer r.cancelMu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
		r.token++
	}
}

// Wait blocks until every started search has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) setCancel(cancel context.CancelFunc) int {
	r.cancelMu.Lock()
	r.token++
	token := r.token
	r.cancel = cancel
	r.cancelMu.Unlock()
	return token
}

func (r *Runner) clearCancel(token int) {
	r.cancelMu.Lock()
	if r.token == token {
		r.cancel = nil
	}
	r.cancelMu.Unlock()
}
