// Package search scans a byte source for text or binary patterns with
// progress reporting and cooperative cancellation.
package search

import (
	"context"

	"github.com/kk-code-lab/rview/internal/bytesource"
	"github.com/kk-code-lab/rview/internal/debuglog"
	"github.com/kk-code-lab/rview/internal/inputmode"
)

// DefaultQuantum is how many candidate positions are examined between
// cancellation checks and progress reports.
const DefaultQuantum = 64 * 1024

// Outcome is the terminal state of a search that did not fail.
type Outcome int

const (
	NotFound Outcome = iota
	Found
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Cancelled:
		return "cancelled"
	default:
		return "not found"
	}
}

// Result reports where a search ended. Offset is only meaningful for Found.
type Result struct {
	Outcome Outcome
	Offset  int64
}

// Direction selects which way the scan walks from the start offset.
type Direction int

const (
	Forward Direction = iota
	// Backward finds the last occurrence starting strictly before the start offset.
	Backward
)

// Engine runs searches. The zero value is ready to use.
type Engine struct {
	Quantum   int64
	Direction Direction
	// OnProgress receives permille values on the scanning goroutine.
	OnProgress func(permille int)
}

// Search looks for req in src starting at start, decoding text under mode.
// Not finding the pattern or being cancelled through ctx are results, not errors.
func (e Engine) Search(ctx context.Context, src bytesource.Source, start int64, req Request, mode string) (Result, error) {
	m, err := compile(req, inputmode.Resolve(mode))
	if err != nil {
		return Result{}, err
	}

	quantum := e.Quantum
	if quantum <= 0 {
		quantum = DefaultQuantum
	}
	last := src.MaxOffset() - m.minLen()

	var res Result
	if e.Direction == Backward {
		res = e.scanBackward(ctx, src, m, start, last, quantum)
	} else {
		res = e.scanForward(ctx, src, m, start, last, quantum)
	}
	debuglog.Printf("search: len=%d binary=%v mode=%s start=%d -> %s offset=%d",
		req.Len(), req.binary, mode, start, res.Outcome, res.Offset)
	return res, nil
}

func (e Engine) scanForward(ctx context.Context, src bytesource.Source, m matcher, start, last, quantum int64) Result {
	if start < 0 {
		start = 0
	}
	total := last - start + 1
	progress := newProgressTracker(total, e.OnProgress)
	for pos := start; pos <= last; pos++ {
		scanned := pos - start
		if scanned%quantum == 0 {
			if ctx.Err() != nil {
				return Result{Outcome: Cancelled}
			}
			progress.update(scanned)
		}
		if m.matchAt(src, pos) {
			return Result{Outcome: Found, Offset: pos}
		}
	}
	progress.finish()
	return Result{Outcome: NotFound}
}

func (e Engine) scanBackward(ctx context.Context, src bytesource.Source, m matcher, start, last, quantum int64) Result {
	first := start - 1
	if first > last {
		first = last
	}
	total := first + 1
	progress := newProgressTracker(total, e.OnProgress)
	for pos := first; pos >= 0; pos-- {
		scanned := first - pos
		if scanned%quantum == 0 {
			if ctx.Err() != nil {
				return Result{Outcome: Cancelled}
			}
			progress.update(scanned)
		}
		if m.matchAt(src, pos) {
			return Result{Outcome: Found, Offset: pos}
		}
	}
	progress.finish()
	return Result{Outcome: NotFound}
}
