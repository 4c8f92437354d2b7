package telephony

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type callCreator interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
}

// TwilioDialer starts calls through the Twilio REST API. Twilio then fetches
// TwiML from BaseURL/voice and reports progress to BaseURL/status.
type TwilioDialer struct {
	calls   callCreator
	from    string
	baseURL string
}

func NewTwilioDialer(accountSID, authToken, from, baseURL string) (*TwilioDialer, error) {
	if strings.TrimSpace(accountSID) == "" || strings.TrimSpace(authToken) == "" || strings.TrimSpace(from) == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("telephony: public base url required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioDialer{calls: client.Api, from: from, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *TwilioDialer) Name() string { return "twilio" }

func (d *TwilioDialer) Dial(ctx context.Context, req OutboundCall) (DialResult, error) {
	if strings.TrimSpace(req.To) == "" {
		return DialResult{}, errors.New("telephony: destination number required")
	}

	_, span := otel.Tracer("voice-booking.internal.telephony").Start(ctx, "telephony.twilio.create_call")
	defer span.End()
	span.SetAttributes(attribute.String("call.request_id", req.RequestID))

	params := &twilioApi.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(d.from)
	params.SetUrl(d.voiceURL(req))
	params.SetMethod("POST")
	params.SetStatusCallback(d.statusURL(req))
	params.SetStatusCallbackMethod("POST")
	params.SetStatusCallbackEvent([]string{"answered", "completed"})

	call, err := d.calls.CreateCall(params)
	if err != nil {
		span.RecordError(err)
		return DialResult{}, fmt.Errorf("telephony: twilio create call: %w", err)
	}

	res := DialResult{}
	if call.Sid != nil {
		res.CallSID = *call.Sid
	}
	if call.Status != nil {
		res.Status = *call.Status
	}
	return res, nil
}

func (d *TwilioDialer) voiceURL(req OutboundCall) string {
	q := url.Values{}
	if req.RequestID != "" {
		q.Set("request_id", req.RequestID)
	}
	if req.Title != "" {
		q.Set("title", req.Title)
	}
	if req.Description != "" {
		q.Set("description", req.Description)
	}
	return withQuery(d.baseURL+"/voice", q)
}

func (d *TwilioDialer) statusURL(req OutboundCall) string {
	q := url.Values{}
	if req.RequestID != "" {
		q.Set("request_id", req.RequestID)
	}
	return withQuery(d.baseURL+"/status", q)
}

func withQuery(u string, q url.Values) string {
	if len(q) == 0 {
		return u
	}
	return u + "?" + q.Encode()
}
