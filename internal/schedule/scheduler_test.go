package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsImmediatelyInsideWindow(t *testing.T) {
	s := NewScheduler(BusinessHours{Location: time.UTC}, nil)
	s.Now = func() time.Time { return at(2024, 6, 5, 10, 0) }
	s.After = func(time.Duration) <-chan time.Time {
		t.Fatalf("should not wait inside business hours")
		return nil
	}

	var ran atomic.Bool
	plan := s.Schedule(context.Background(), "call", func(context.Context) { ran.Store(true) })
	s.Wait()

	if plan.Deferred {
		t.Fatalf("expected immediate plan, got %+v", plan)
	}
	if !ran.Load() {
		t.Fatalf("expected job to run")
	}
}

func TestScheduler_DefersOutsideWindow(t *testing.T) {
	s := NewScheduler(BusinessHours{Location: time.UTC}, nil)
	s.Now = func() time.Time { return at(2024, 6, 1, 10, 0) }

	release := make(chan time.Time)
	var waited time.Duration
	s.After = func(d time.Duration) <-chan time.Time {
		waited = d
		return release
	}

	done := make(chan struct{})
	plan := s.Schedule(context.Background(), "call", func(context.Context) { close(done) })

	if !plan.Deferred {
		t.Fatalf("expected deferred plan")
	}
	if !plan.RunAt.Equal(at(2024, 6, 3, 8, 0)) {
		t.Fatalf("unexpected run at %s", plan.RunAt)
	}
	if plan.Delay != 46*time.Hour {
		t.Fatalf("unexpected delay %s", plan.Delay)
	}

	select {
	case <-done:
		t.Fatalf("job ran before the wait elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	release <- time.Time{}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("job did not run after release")
	}
	s.Wait()
	if waited != 46*time.Hour {
		t.Fatalf("unexpected wait %s", waited)
	}
}

func TestScheduler_DeferredJobDoesNotBlockOthers(t *testing.T) {
	s := NewScheduler(BusinessHours{Location: time.UTC}, nil)
	clock := at(2024, 6, 1, 10, 0)
	s.Now = func() time.Time { return clock }
	block := make(chan time.Time)
	s.After = func(time.Duration) <-chan time.Time { return block }

	ctx, cancel := context.WithCancel(context.Background())
	var deferredRan atomic.Bool
	s.Schedule(ctx, "weekend", func(context.Context) { deferredRan.Store(true) })

	clock = at(2024, 6, 3, 9, 0)
	done := make(chan struct{})
	s.Schedule(ctx, "monday", func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("immediate job was blocked by a deferred one")
	}

	cancel()
	s.Wait()
	if deferredRan.Load() {
		t.Fatalf("deferred job should be dropped when the context ends")
	}
}
