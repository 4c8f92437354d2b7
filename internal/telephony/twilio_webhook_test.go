package telephony

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseVoiceForm(t *testing.T) {
	body := strings.NewReader("CallSid=CA123&SpeechResult=+Tuesday+at+ten+&Digits=&CallStatus=In-Progress")
	r := httptest.NewRequest(http.MethodPost, "/gather?request_id=req-1&title=Dentist", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseVoiceForm(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if form.CallSid != "CA123" {
		t.Fatalf("expected CallSid, got %q", form.CallSid)
	}
	if form.SpeechResult != "Tuesday at ten" {
		t.Fatalf("expected trimmed speech, got %q", form.SpeechResult)
	}
	if form.RequestID != "req-1" || form.Title != "Dentist" {
		t.Fatalf("expected query context, got %q %q", form.RequestID, form.Title)
	}
	if form.CallStatus != "in-progress" {
		t.Fatalf("expected lowercased status, got %q", form.CallStatus)
	}
}

func TestIsFinalStatus(t *testing.T) {
	for _, s := range []string{"completed", "busy", "no-answer", "failed", "canceled"} {
		if !IsFinalStatus(s) {
			t.Fatalf("expected %q final", s)
		}
	}
	for _, s := range []string{"queued", "initiated", "ringing", "in-progress", ""} {
		if IsFinalStatus(s) {
			t.Fatalf("expected %q not final", s)
		}
	}
}
