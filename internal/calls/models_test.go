package calls

import (
	"errors"
	"testing"
)

func TestCallRequestValidate(t *testing.T) {
	ok := CallRequest{RequestID: "r", UserID: "u", Title: "t", Description: "d", PreferredTime: "asap"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := CallRequest{RequestID: "r", Title: " "}.Validate()
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Missing) != 4 {
		t.Fatalf("expected 4 missing fields, got %v", err)
	}
}

func TestStatusForCall(t *testing.T) {
	cases := []struct {
		call   string
		booked bool
		want   RequestStatus
	}{
		{"ringing", false, StatusCalling},
		{"in-progress", false, StatusInProgress},
		{"completed", true, StatusBooked},
		{"completed", false, StatusWaitingForCallback},
		{"no-answer", false, StatusFailed},
		{"busy", false, StatusFailed},
		{"canceled", false, StatusCanceled},
	}
	for _, c := range cases {
		got, ok := StatusForCall(c.call, c.booked)
		if !ok || got != c.want {
			t.Fatalf("%s/%v: expected %s, got %s", c.call, c.booked, c.want, got)
		}
	}
	if _, ok := StatusForCall("something-else", false); ok {
		t.Fatalf("expected unknown status to be ignored")
	}
}

func TestFullStreet(t *testing.T) {
	if got := (UserProfile{Street: "Nancystraße", HouseNumber: "12"}).FullStreet(); got != "Nancystraße 12" {
		t.Fatalf("unexpected %q", got)
	}
	if got := (UserProfile{Street: "Nancystraße"}).FullStreet(); got != "Nancystraße" {
		t.Fatalf("unexpected %q", got)
	}
}
