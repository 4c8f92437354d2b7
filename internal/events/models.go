package events

import "time"

// Event is one entry of a booking request's timeline.
//
// Invariants:
// - Events are never updated or deleted.
// - request_id is required; every event belongs to exactly one request.
// - Recording is best-effort; do not block a call on timeline failures.
//
// Storage (Postgres): table events with an INSERT-only policy.
type Event struct {
	ID        string `json:"id" db:"id"`
	RequestID string `json:"request_id" db:"request_id"`

	// Type is the status the request moved to, or "summary".
	Type Type `json:"type" db:"type"`

	// CallSID links the event to a telephony call when there is one.
	CallSID string `json:"call_sid,omitempty" db:"call_sid"`

	// Message is a short human-readable description shown in the timeline.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Type string

const (
	TypeQueued               Type = "queued"
	TypeOutsideBusinessHours Type = "outside_business_hours"
	TypeCalling              Type = "calling"
	TypeInProgress           Type = "in_progress"
	TypeWaitingForCallback   Type = "waiting_for_callback"
	TypeBooked               Type = "booked"
	TypeFailed               Type = "failed"
	TypeCanceled             Type = "canceled"
	TypeSummary              Type = "summary"
)
