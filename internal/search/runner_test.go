package search

import (
	"context"
	"testing"
	"time"

	"github.com/kk-code-lab/rview/internal/inputmode"
)

func drain(t *testing.T, events <-chan Event) (Event, []int) {
	t.Helper()
	var progress []int
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event stream closed without a final event")
			}
			if ev.Done {
				if _, open := <-events; open {
					t.Fatalf("expected stream to close after final event")
				}
				return ev, progress
			}
			progress = append(progress, ev.Progress)
		case <-timeout:
			t.Fatalf("timed out waiting for search events")
		}
	}
}

func inFlight(r *Runner) bool {
	r.cancelMu.Lock()
	defer r.cancelMu.Unlock()
	return r.cancel != nil
}

func TestRunnerDeliversResult(t *testing.T) {
	data := randomData(50_000, 4)
	plant(data, 40_000, plantedPattern)

	r := &Runner{Engine: Engine{Quantum: 4096}}
	final, progress := drain(t, r.Start(context.Background(), sliceSource(data), 0, NewBinaryRequest(plantedPattern), inputmode.ASCII))
	if final.Err != nil {
		t.Fatalf("search failed: %v", final.Err)
	}
	if final.Result.Outcome != Found || final.Result.Offset != 40_000 {
		t.Fatalf("final result %+v, want Found at 40000", final.Result)
	}
	if final.Progress != 1000 {
		t.Fatalf("final progress %d, want 1000", final.Progress)
	}
	for _, p := range progress {
		if p < 0 || p > 1000 {
			t.Fatalf("progress %d outside permille range", p)
		}
	}
	if inFlight(r) {
		t.Fatalf("runner should be idle after completion")
	}
}

func TestRunnerCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	first := true
	r := &Runner{Engine: Engine{Quantum: 1024, OnProgress: func(int) {
		if first {
			first = false
			close(started)
			<-release
		}
	}}}

	events := r.Start(context.Background(), sliceSource(make([]byte, 1<<20)), 0, NewBinaryRequest(plantedPattern), inputmode.ASCII)
	<-started
	if !inFlight(r) {
		t.Fatalf("expected runner to report an in-flight search")
	}
	r.Cancel()
	close(release)

	final, _ := drain(t, events)
	if final.Result.Outcome != Cancelled {
		t.Fatalf("final outcome %v, want Cancelled", final.Result.Outcome)
	}
}

func TestRunnerStartCancelsPrevious(t *testing.T) {
	r := &Runner{Engine: Engine{Quantum: 1024}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	firstEvents := r.Start(ctx, sliceSource(make([]byte, 1<<16)), 0, NewBinaryRequest(plantedPattern), inputmode.ASCII)
	firstFinal, _ := drain(t, firstEvents)
	if firstFinal.Result.Outcome != Cancelled {
		t.Fatalf("search with cancelled parent context returned %v", firstFinal.Result.Outcome)
	}

	second := r.Start(context.Background(), sliceSource("xxneedle"), 0, NewTextRequest("needle", true), inputmode.ASCII)
	final, _ := drain(t, second)
	if final.Result.Outcome != Found || final.Result.Offset != 2 {
		t.Fatalf("second search returned %+v, want Found at 2", final.Result)
	}
}

func TestRunnerReportsErrors(t *testing.T) {
	r := &Runner{}
	final, _ := drain(t, r.Start(context.Background(), sliceSource("abc"), 0, NewTextRequest("", true), inputmode.ASCII))
	if final.Err == nil {
		t.Fatalf("expected error for empty pattern")
	}
}

func TestRunnerWaitWithoutConsumer(t *testing.T) {
	r := &Runner{Engine: Engine{Quantum: 16}}
	_ = r.Start(context.Background(), sliceSource(make([]byte, 1<<16)), 0, NewBinaryRequest(plantedPattern), inputmode.ASCII)

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Wait blocked although the event stream was never read")
	}
}
