package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of deferred work, typically placing one outbound call.
type Job func(ctx context.Context)

// Plan describes when a scheduled job runs.
type Plan struct {
	RunAt    time.Time
	Deferred bool
	Delay    time.Duration
}

// Scheduler runs jobs inside business hours. A job submitted outside the
// window waits in its own goroutine; other jobs and request handling are
// never blocked by it.
type Scheduler struct {
	Hours BusinessHours
	Now   func() time.Time
	// After is time.After; tests replace it to release waits deterministically.
	After func(d time.Duration) <-chan time.Time
	Log   *slog.Logger

	wg sync.WaitGroup
}

func NewScheduler(hours BusinessHours, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{Hours: hours, Now: time.Now, After: time.After, Log: log}
}

// PlanAt computes the plan for a job submitted at now.
func (s *Scheduler) PlanAt(now time.Time) Plan {
	if s.Hours.IsBusinessHours(now) {
		return Plan{RunAt: now}
	}
	runAt := s.Hours.NextBusinessDatetime(now)
	delay := runAt.Sub(now)
	if delay < 0 {
		delay = 0
	}
	return Plan{RunAt: runAt, Deferred: true, Delay: delay}
}

// Schedule starts job now or at the next business instant and returns the plan.
// The job receives ctx; when ctx ends before the wait is over the job is dropped.
func (s *Scheduler) Schedule(ctx context.Context, name string, job Job) Plan {
	now := s.now()
	plan := s.PlanAt(now)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if plan.Deferred && plan.Delay > 0 {
			s.Log.Info("outside business hours, deferring job",
				"job", name,
				"run_at", plan.RunAt.Format(time.RFC3339),
				"delay_seconds", int64(plan.Delay.Seconds()),
			)
			select {
			case <-s.after(plan.Delay):
			case <-ctx.Done():
				s.Log.Warn("deferred job dropped on shutdown", "job", name, "err", ctx.Err())
				return
			}
			s.Log.Info("business hours reached, running job", "job", name)
		}
		job(ctx)
	}()
	return plan
}

// Wait blocks until every started job has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Scheduler) after(d time.Duration) <-chan time.Time {
	if s.After == nil {
		return time.After(d)
	}
	return s.After(d)
}
