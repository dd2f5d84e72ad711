package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsScheduledRoutines(t *testing.T) {
	s := New(context.Background(), 2)

	var ran int64
	for i := 0; i < 5; i++ {
		s.AddOneTimeRoutine("noop", func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
	}

	if err := s.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := atomic.LoadInt64(&ran); got != 5 {
		t.Errorf("ran = %d, want 5", got)
	}
}

func TestScheduler_WaitPropagatesFirstError(t *testing.T) {
	s := New(context.Background(), 1)

	wantErr := errors.New("boom")
	s.AddOneTimeRoutine("failing", func(ctx context.Context) error {
		return wantErr
	})

	err := s.Wait()
	if err == nil {
		t.Fatal("Wait returned nil, want an error")
	}
}

func TestScheduler_RespectsMaxConcurrent(t *testing.T) {
	s := New(context.Background(), 2)

	var current, maxSeen int64
	start := make(chan struct{})
	for i := 0; i < 6; i++ {
		s.AddOneTimeRoutine("tracked", func(ctx context.Context) error {
			<-start
			n := atomic.AddInt64(&current, 1)
			for {
				m := atomic.LoadInt64(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt64(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&current, -1)
			return nil
		})
	}
	close(start)

	if err := s.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := atomic.LoadInt64(&maxSeen); got > 2 {
		t.Errorf("maxSeen concurrent routines = %d, want <= 2", got)
	}
}

func TestScheduler_CancelOnError(t *testing.T) {
	s := New(context.Background(), 1)

	s.AddOneTimeRoutine("failing", func(ctx context.Context) error {
		return errors.New("boom")
	})
	var secondRan int64
	s.AddOneTimeRoutine("second", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
			atomic.AddInt64(&secondRan, 1)
			return nil
		}
	})

	_ = s.Wait()
	if got := atomic.LoadInt64(&secondRan); got != 0 {
		t.Errorf("second routine completed %d time(s) after the first failed, want 0 (pool should cancel on error)", got)
	}
}

func TestScheduler_RunningReflectsInFlightCount(t *testing.T) {
	s := New(context.Background(), 4)

	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		s.AddOneTimeRoutine("blocked", func(ctx context.Context) error {
			<-release
			return nil
		})
	}

	deadline := time.Now().Add(time.Second)
	for s.Running() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := s.Running(); got != 3 {
		t.Fatalf("Running() = %d, want 3 while routines are blocked", got)
	}

	close(release)
	if err := s.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := s.Running(); got != 0 {
		t.Errorf("Running() = %d, want 0 after Wait", got)
	}
}

func TestYield_FalseBeforeCancel(t *testing.T) {
	ctx := context.Background()
	if Yield(ctx) {
		t.Error("Yield = true for a live context, want false")
	}
}

func TestYield_TrueAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if !Yield(ctx) {
		t.Error("Yield = false for a canceled context, want true")
	}
}
