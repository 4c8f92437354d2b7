package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for timeline events.
//
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
	ListByRequest(ctx context.Context, requestID string) ([]Event, error)
}

// Service records request timelines.
// Callers should treat recording as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("events: invalid event")

// Normalize validates e and fills its id and timestamp.
// Stores that insert events themselves (inside a transaction) use it too.
func Normalize(e Event, now time.Time) (Event, error) {
	if e.RequestID == "" || e.Type == "" {
		return Event{}, ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
	return e, nil
}

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("events: repository not configured")
	}
	e, err := Normalize(e, s.clock())
	if err != nil {
		return err
	}
	return s.repo.Append(ctx, e)
}

// Record appends a typed event for a request.
func (s *Service) Record(ctx context.Context, requestID string, t Type, callSID, message string) error {
	return s.Append(ctx, Event{RequestID: requestID, Type: t, CallSID: callSID, Message: message})
}

// Timeline returns a request's events oldest first.
func (s *Service) Timeline(ctx context.Context, requestID string) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("events: repository not configured")
	}
	if requestID == "" {
		return nil, ErrInvalidEvent
	}
	return s.repo.ListByRequest(ctx, requestID)
}
