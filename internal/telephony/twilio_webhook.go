package telephony

import (
	"net/http"
	"strings"
)

// VoiceForm captures the subset of voice webhook fields the dialogue uses.
// Twilio sends application/x-www-form-urlencoded on POST and query params on
// GET; our own request_id/title/description ride on the webhook URL.
// Ref: https://www.twilio.com/docs/voice/twiml
type VoiceForm struct {
	CallSid      string
	AccountSid   string
	From         string
	To           string
	CallStatus   string
	SpeechResult string
	Confidence   string
	Digits       string

	RequestID   string
	Title       string
	Description string
}

func ParseVoiceForm(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, err
	}
	v := func(key string) string { return strings.TrimSpace(r.FormValue(key)) }
	return VoiceForm{
		CallSid:      v("CallSid"),
		AccountSid:   v("AccountSid"),
		From:         v("From"),
		To:           v("To"),
		CallStatus:   strings.ToLower(v("CallStatus")),
		SpeechResult: v("SpeechResult"),
		Confidence:   v("Confidence"),
		Digits:       v("Digits"),
		RequestID:    v("request_id"),
		Title:        v("title"),
		Description:  v("description"),
	}, nil
}

// IsFinalStatus reports whether a CallStatus ends the call.
func IsFinalStatus(status string) bool {
	switch status {
	case "completed", "busy", "no-answer", "failed", "canceled":
		return true
	default:
		return false
	}
}
