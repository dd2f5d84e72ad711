// Package runtime implements the agent's cooperative task scheduler: the
// Go-native stand-in for the original process's single-threaded mainloop
// with explicit yield points (spec.md §5 "Concurrency & resource model").
// Go goroutines preempt automatically, so the scheduler's job isn't
// fairness between routines — it's bounding in-flight work (one bounded
// conc.Pool per Scheduler) and offering Yield, a context-cancellation
// check that long loops can call.
package runtime

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
)

// Scheduler bounds concurrent one-time routines (policy recompiles,
// messaging sends, keyword rule evaluations) to a fixed pool size,
// mirroring the single-mainloop original's implicit serialization of
// unrelated work while still letting Go routines run in parallel where the
// spec allows it (spec.md §5: "a bounded pool, not one goroutine per
// request").
type Scheduler struct {
	pool    *pool.ContextPool
	running int64
}

// New builds a Scheduler whose AddOneTimeRoutine calls run with at most
// maxConcurrent in flight at once. ctx is the parent of the context every
// routine receives; canceling it cancels their context. Wait returns once
// every scheduled routine has finished, whether or not ctx is done.
func New(ctx context.Context, maxConcurrent int) *Scheduler {
	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(maxConcurrent).
		WithCancelOnError()
	return &Scheduler{pool: p}
}

// AddOneTimeRoutine schedules fn to run once a pool slot is free, the Go
// analogue of the original's AddOneTimeRoutine mainloop registration. It
// never blocks the caller past acquiring a slot becoming available.
func (s *Scheduler) AddOneTimeRoutine(name string, fn func(ctx context.Context) error) {
	atomic.AddInt64(&s.running, 1)
	s.pool.Go(func(ctx context.Context) error {
		defer atomic.AddInt64(&s.running, -1)
		if err := fn(ctx); err != nil {
			return fmt.Errorf("routine %q: %w", name, err)
		}
		return nil
	})
}

// Wait blocks until every scheduled routine has returned, then returns the
// first error any of them reported (if WithCancelOnError canceled the
// rest).
func (s *Scheduler) Wait() error {
	return s.pool.Wait()
}

// Running reports how many routines are currently executing, exposed for
// the health/status surface (spec.md §6 "show" action).
func (s *Scheduler) Running() int64 {
	return atomic.LoadInt64(&s.running)
}

// YieldGranularityBytes is a default checkpoint interval, in bytes, for
// callers of Yield. Nothing in the agent core uses it.
const YieldGranularityBytes = 64 * 1024

// Yield reports whether the caller should stop work and return promptly:
// ctx has been canceled or its deadline has passed. No loop in the agent
// core calls it: the keyword engine's scans and the policy compiler's
// per-source loop run to completion without this check.
func Yield(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
