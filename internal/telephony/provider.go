package telephony

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("telephony: dialer not configured (TWILIO_ACCOUNT_SID/TWILIO_AUTH_TOKEN/TWILIO_PHONE_NUMBER missing)")

// Dialer places outbound calls.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - The call's conversation is driven by webhooks; Dial only starts it.
type Dialer interface {
	Name() string
	Dial(ctx context.Context, req OutboundCall) (DialResult, error)
}

// OutboundCall is what the dialer needs to start a booking call.
// Title and Description travel on the webhook URL so the first turn has
// context even without a database.
type OutboundCall struct {
	To          string `json:"to"`
	RequestID   string `json:"request_id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type DialResult struct {
	// CallSID is the provider's unique identifier for this call.
	CallSID string `json:"call_sid"`
	Status  string `json:"status"`
}
