package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voice-booking/internal/events"
	"voice-booking/internal/observability/metrics"
	"voice-booking/internal/schedule"
	"voice-booking/internal/telephony"
)

var ErrNoTarget = errors.New("calls: no number to call (number_to_call empty and TWILIO_DEFAULT_TARGET unset)")

// Scheduler defers jobs to business hours.
type Scheduler interface {
	Schedule(ctx context.Context, name string, job schedule.Job) schedule.Plan
}

// RequestStore keeps requests.status in sync with the timeline.
type RequestStore interface {
	UpdateRequestStatus(ctx context.Context, requestID string, status RequestStatus, ev events.Event) error
}

// Service accepts call requests and follows them through the call lifecycle.
type Service struct {
	root          context.Context
	sched         Scheduler
	dialer        telephony.Dialer
	events        *events.Service
	requests      RequestStore
	defaultTarget string
	metrics       *metrics.VoiceMetrics
	log           *slog.Logger
	clock         func() time.Time
}

type Options struct {
	Scheduler     Scheduler
	Dialer        telephony.Dialer
	Events        *events.Service
	Requests      RequestStore
	DefaultTarget string
	Metrics       *metrics.VoiceMetrics
	Log           *slog.Logger
}

// NewService binds deferred calls to root, the process lifetime context.
func NewService(root context.Context, opts Options) *Service {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		root:          root,
		sched:         opts.Scheduler,
		dialer:        opts.Dialer,
		events:        opts.Events,
		requests:      opts.Requests,
		defaultTarget: strings.TrimSpace(opts.DefaultTarget),
		metrics:       opts.Metrics,
		log:           log,
		clock:         time.Now,
	}
}

// Submit validates req and schedules its call. It never waits for the call itself.
func (s *Service) Submit(ctx context.Context, req CallRequest) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}
	target := strings.TrimSpace(req.NumberToCall)
	if target == "" {
		target = s.defaultTarget
	}
	if target == "" {
		return Outcome{}, ErrNoTarget
	}
	if s.dialer == nil {
		return Outcome{}, telephony.ErrNotConfigured
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = s.clock()
	}

	// The job must not report "calling" before the initial status is recorded.
	recorded := make(chan struct{})
	plan := s.sched.Schedule(s.root, "call:"+req.RequestID, func(ctx context.Context) {
		<-recorded
		s.placeCall(ctx, req, target)
	})

	out := Outcome{RequestID: req.RequestID, Status: StatusQueued, RunAt: plan.RunAt, Deferred: plan.Deferred}
	msg := "call queued"
	if plan.Deferred {
		out.Status = StatusOutsideBusinessHours
		msg = "outside business hours, call planned for " + plan.RunAt.Format(time.RFC3339)
		s.metrics.ObserveCall("deferred")
	} else {
		s.metrics.ObserveCall("immediate")
	}
	s.transition(ctx, req.RequestID, out.Status, "", msg)
	close(recorded)

	s.log.Info("call request accepted",
		"request_id", req.RequestID,
		"deferred", plan.Deferred,
		"run_at", plan.RunAt.Format(time.RFC3339),
	)
	return out, nil
}

func (s *Service) placeCall(ctx context.Context, req CallRequest, target string) {
	log := s.log.With("request_id", req.RequestID)

	res, err := s.dialer.Dial(ctx, telephony.OutboundCall{
		To:          target,
		RequestID:   req.RequestID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		log.Error("outbound call failed", "dialer", s.dialer.Name(), "err", err)
		s.metrics.ObserveCall("failed")
		s.transition(ctx, req.RequestID, StatusFailed, "", err.Error())
		return
	}

	log.Info("outbound call started", "call_sid", res.CallSID, "status", res.Status)
	s.metrics.ObserveCall("dialed")
	s.transition(ctx, req.RequestID, StatusCalling, res.CallSID, "calling "+maskNumber(target))
}

// RecordCallStatus applies a telephony status callback to the request.
func (s *Service) RecordCallStatus(ctx context.Context, u telephony.CallStatusUpdate) error {
	if u.RequestID == "" {
		return nil
	}
	if u.Summary != "" && s.events != nil {
		if err := s.events.Record(ctx, u.RequestID, events.TypeSummary, u.CallSID, u.Summary); err != nil {
			s.log.Warn("summary not recorded", "request_id", u.RequestID, "err", err)
		}
	}
	status, ok := StatusForCall(u.CallStatus, u.Booked)
	if !ok {
		return nil
	}
	return s.transition(ctx, u.RequestID, status, u.CallSID, "call "+u.CallStatus)
}

// Timeline returns the recorded events of a request.
func (s *Service) Timeline(ctx context.Context, requestID string) ([]events.Event, error) {
	if s.events == nil {
		return nil, errors.New("calls: events not configured")
	}
	return s.events.Timeline(ctx, requestID)
}

func (s *Service) transition(ctx context.Context, requestID string, status RequestStatus, callSID, message string) error {
	ev := events.Event{RequestID: requestID, Type: events.Type(status), CallSID: callSID, Message: message}

	var err error
	switch {
	case s.requests != nil:
		err = s.requests.UpdateRequestStatus(ctx, requestID, status, ev)
	case s.events != nil:
		err = s.events.Append(ctx, ev)
	}
	if err != nil {
		s.log.Warn("request status not recorded", "request_id", requestID, "status", status, "err", err)
		return fmt.Errorf("calls: record %s: %w", status, err)
	}
	return nil
}

// maskNumber keeps the last three digits of a phone number for the timeline.
func maskNumber(n string) string {
	if len(n) <= 3 {
		return n
	}
	return strings.Repeat("*", len(n)-3) + n[len(n)-3:]
}
