package calls

import (
	"errors"
	"strings"
	"time"
)

// CallRequest is a user's request to have an appointment booked by phone.
// It is immutable once accepted.
type CallRequest struct {
	RequestID      string       `json:"request_id"`
	UserID         string       `json:"user_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	CallbackNumber string       `json:"callback_number"`
	NumberToCall   string       `json:"number_to_call,omitempty"`
	PreferredTime  string       `json:"preferred_time"`
	UserProfile    *UserProfile `json:"user_profile,omitempty"`

	ReceivedAt time.Time `json:"-"`
}

// UserProfile is the caller-facing identity and address of a user.
type UserProfile struct {
	Username    string `json:"username,omitempty"`
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
}

// FullStreet joins street and house number.
func (p UserProfile) FullStreet() string {
	return strings.TrimSpace(strings.TrimSpace(p.Street) + " " + strings.TrimSpace(p.HouseNumber))
}

var ErrInvalidRequest = errors.New("calls: invalid request")

func (r CallRequest) Validate() error {
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"request_id", r.RequestID},
		{"user_id", r.UserID},
		{"title", r.Title},
		{"description", r.Description},
		{"preferred_time", r.PreferredTime},
	} {
		if strings.TrimSpace(f.v) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "calls: missing " + strings.Join(e.Missing, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// RequestStatus is the lifecycle state stored on the request row.
type RequestStatus string

const (
	StatusQueued               RequestStatus = "queued"
	StatusOutsideBusinessHours RequestStatus = "outside_business_hours"
	StatusCalling              RequestStatus = "calling"
	StatusInProgress           RequestStatus = "in_progress"
	StatusWaitingForCallback   RequestStatus = "waiting_for_callback"
	StatusBooked               RequestStatus = "booked"
	StatusFailed               RequestStatus = "failed"
	StatusCanceled             RequestStatus = "canceled"
)

// StatusForCall maps a telephony CallStatus to the request status.
// A completed call without a confirmed appointment waits for a callback.
func StatusForCall(callStatus string, booked bool) (RequestStatus, bool) {
	switch callStatus {
	case "queued", "initiated", "ringing":
		return StatusCalling, true
	case "in-progress", "answered":
		return StatusInProgress, true
	case "completed":
		if booked {
			return StatusBooked, true
		}
		return StatusWaitingForCallback, true
	case "busy", "no-answer", "failed":
		return StatusFailed, true
	case "canceled":
		return StatusCanceled, true
	default:
		return "", false
	}
}

// Outcome reports how a submitted request was scheduled.
type Outcome struct {
	RequestID string        `json:"request_id"`
	Status    RequestStatus `json:"status"`
	RunAt     time.Time     `json:"run_at"`
	Deferred  bool          `json:"deferred"`
}
