package conversation

import (
	"errors"
	"time"
)

const (
	RoleAssistant = "assistant"
	RoleCaller    = "caller"
)

var ErrSessionNotFound = errors.New("conversation: session not found")

// Turn is one utterance in a call.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// CallContext is what the assistant knows about the booking it calls for.
type CallContext struct {
	RequestID     string `json:"request_id,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PreferredTime string `json:"preferred_time,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	City          string `json:"city,omitempty"`
}

const (
	fallbackTitle         = "a general check-up"
	fallbackDescription   = "Routine appointment."
	fallbackPreferredTime = "as soon as possible"
)

// WithDefaults fills whatever is still missing with the generic check-up context.
func (c CallContext) WithDefaults() CallContext {
	if c.Title == "" {
		c.Title = fallbackTitle
	}
	if c.Description == "" {
		c.Description = fallbackDescription
	}
	if c.PreferredTime == "" {
		c.PreferredTime = fallbackPreferredTime
	}
	return c
}

// merge keeps the fields already set on c and takes the rest from other.
func (c CallContext) merge(other CallContext) CallContext {
	if c.RequestID == "" {
		c.RequestID = other.RequestID
	}
	if c.Title == "" {
		c.Title = other.Title
	}
	if c.Description == "" {
		c.Description = other.Description
	}
	if c.PreferredTime == "" {
		c.PreferredTime = other.PreferredTime
	}
	if c.CustomerName == "" {
		c.CustomerName = other.CustomerName
	}
	if c.City == "" {
		c.City = other.City
	}
	return c
}

// Session is the conversation state of one call, keyed by the platform call id.
type Session struct {
	CallSID   string      `json:"call_sid"`
	RequestID string      `json:"request_id,omitempty"`
	Context   CallContext `json:"context"`
	Turns     []Turn      `json:"turns"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (s *Session) Append(role, text string, at time.Time) {
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, At: at})
	s.UpdatedAt = at
}

// Recent returns at most the last n turns.
func (s *Session) Recent(n int) []Turn {
	if n <= 0 || len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Turns = append([]Turn(nil), s.Turns...)
	return &cp
}
