package telephony

import (
	"context"
	"errors"
	"net/url"
	"testing"

	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCalls struct {
	params *twilioApi.CreateCallParams
	err    error
}

func (f *fakeCalls) CreateCall(p *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	sid, status := "CA42", "queued"
	return &twilioApi.ApiV2010Call{Sid: &sid, Status: &status}, nil
}

func TestTwilioDialerBuildsWebhookURLs(t *testing.T) {
	calls := &fakeCalls{}
	d := &TwilioDialer{calls: calls, from: "+4930000000", baseURL: "https://calls.example.com"}

	res, err := d.Dial(context.Background(), OutboundCall{To: "+4915100000000", RequestID: "req-1", Title: "Zahnarzt Termin"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.CallSID != "CA42" || res.Status != "queued" {
		t.Fatalf("unexpected result %+v", res)
	}

	p := calls.params
	if *p.To != "+4915100000000" || *p.From != "+4930000000" {
		t.Fatalf("unexpected to/from %q %q", *p.To, *p.From)
	}
	u, err := url.Parse(*p.Url)
	if err != nil {
		t.Fatalf("bad url: %v", err)
	}
	if u.Path != "/voice" || u.Query().Get("request_id") != "req-1" || u.Query().Get("title") != "Zahnarzt Termin" {
		t.Fatalf("unexpected voice url %q", *p.Url)
	}
	if *p.StatusCallback != "https://calls.example.com/status?request_id=req-1" {
		t.Fatalf("unexpected status callback %q", *p.StatusCallback)
	}
}

func TestTwilioDialerWrapsErrors(t *testing.T) {
	d := &TwilioDialer{calls: &fakeCalls{err: errors.New("unverified number")}, from: "+1", baseURL: "https://x"}
	if _, err := d.Dial(context.Background(), OutboundCall{To: "+2"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := d.Dial(context.Background(), OutboundCall{}); err == nil {
		t.Fatalf("expected error for missing destination")
	}
}

func TestNewTwilioDialerRequiresCredentials(t *testing.T) {
	if _, err := NewTwilioDialer("", "tok", "+1", "https://x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
