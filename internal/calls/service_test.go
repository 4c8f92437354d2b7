package calls

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-booking/internal/events"
	"voice-booking/internal/schedule"
	"voice-booking/internal/telephony"
)

type fakeDialer struct {
	mu    sync.Mutex
	calls []telephony.OutboundCall
	err   error
}

func (f *fakeDialer) Name() string { return "fake" }

func (f *fakeDialer) Dial(_ context.Context, req telephony.OutboundCall) (telephony.DialResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return telephony.DialResult{}, f.err
	}
	return telephony.DialResult{CallSID: "CA1", Status: "queued"}, nil
}

func (f *fakeDialer) dialed() []telephony.OutboundCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]telephony.OutboundCall(nil), f.calls...)
}

type fakeRequests struct {
	mu       sync.Mutex
	statuses []RequestStatus
}

func (f *fakeRequests) UpdateRequestStatus(_ context.Context, _ string, status RequestStatus, _ events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

// Tuesday 2024-06-04 10:00 UTC is inside business hours; Saturday 2024-06-01 is not.
var (
	tuesdayMorning = time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC)
	saturdayNoon   = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

func validRequest() CallRequest {
	return CallRequest{
		RequestID:     "req-1",
		UserID:        "user-1",
		Title:         "Zahnarzt",
		Description:   "Zahnreinigung",
		PreferredTime: "next week",
	}
}

func newScheduler(now time.Time) (*schedule.Scheduler, chan time.Time) {
	release := make(chan time.Time)
	s := schedule.NewScheduler(schedule.BusinessHours{Location: time.UTC, OpenHour: 8, CloseHour: 18}, nil)
	s.Now = func() time.Time { return now }
	s.After = func(time.Duration) <-chan time.Time { return release }
	return s, release
}

func TestSubmit_DialsImmediatelyInBusinessHours(t *testing.T) {
	sched, _ := newScheduler(tuesdayMorning)
	dialer := &fakeDialer{}
	repo := events.NewMemoryRepo()
	svc := NewService(context.Background(), Options{
		Scheduler:     sched,
		Dialer:        dialer,
		Events:        events.NewService(repo),
		DefaultTarget: "+4915100000000",
	})

	out, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, out.Deferred)
	assert.Equal(t, StatusQueued, out.Status)

	sched.Wait()
	calls := dialer.dialed()
	require.Len(t, calls, 1)
	assert.Equal(t, "+4915100000000", calls[0].To)
	assert.Equal(t, "req-1", calls[0].RequestID)

	evs := repo.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, events.TypeQueued, evs[0].Type)
	assert.Equal(t, events.TypeCalling, evs[1].Type)
	assert.Equal(t, "CA1", evs[1].CallSID)
}

func TestSubmit_DefersOutsideBusinessHours(t *testing.T) {
	sched, release := newScheduler(saturdayNoon)
	dialer := &fakeDialer{}
	requests := &fakeRequests{}
	svc := NewService(context.Background(), Options{Scheduler: sched, Dialer: dialer, Requests: requests})

	req := validRequest()
	req.NumberToCall = "+4930123456"
	out, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, out.Deferred)
	assert.Equal(t, StatusOutsideBusinessHours, out.Status)
	assert.Equal(t, time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC), out.RunAt)
	assert.Empty(t, dialer.dialed())

	release <- saturdayNoon
	sched.Wait()

	calls := dialer.dialed()
	require.Len(t, calls, 1)
	assert.Equal(t, "+4930123456", calls[0].To)
	assert.Equal(t, []RequestStatus{StatusOutsideBusinessHours, StatusCalling}, requests.statuses)
}

func TestSubmit_DialFailureMarksFailed(t *testing.T) {
	sched, _ := newScheduler(tuesdayMorning)
	repo := events.NewMemoryRepo()
	svc := NewService(context.Background(), Options{
		Scheduler:     sched,
		Dialer:        &fakeDialer{err: errors.New("unverified number")},
		Events:        events.NewService(repo),
		DefaultTarget: "+1555",
	})

	_, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	sched.Wait()

	evs := repo.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, events.TypeFailed, evs[1].Type)
	assert.Contains(t, evs[1].Message, "unverified number")
}

func TestSubmit_Rejections(t *testing.T) {
	sched, _ := newScheduler(tuesdayMorning)

	svc := NewService(context.Background(), Options{Scheduler: sched, Dialer: &fakeDialer{}})
	_, err := svc.Submit(context.Background(), CallRequest{RequestID: "r"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrNoTarget)

	svc = NewService(context.Background(), Options{Scheduler: sched, DefaultTarget: "+1555"})
	_, err = svc.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, telephony.ErrNotConfigured)
}

func TestRecordCallStatus(t *testing.T) {
	repo := events.NewMemoryRepo()
	svc := NewService(context.Background(), Options{Events: events.NewService(repo)})
	ctx := context.Background()

	require.NoError(t, svc.RecordCallStatus(ctx, telephony.CallStatusUpdate{RequestID: "r1", CallSID: "CA1", CallStatus: "in-progress"}))
	require.NoError(t, svc.RecordCallStatus(ctx, telephony.CallStatusUpdate{
		RequestID: "r1", CallSID: "CA1", CallStatus: "completed", Final: true,
		Summary: "Appointment on Wednesday.", Booked: true,
	}))
	require.NoError(t, svc.RecordCallStatus(ctx, telephony.CallStatusUpdate{RequestID: "r1", CallStatus: "sending"}))

	evs, err := svc.Timeline(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, events.TypeInProgress, evs[0].Type)
	assert.Equal(t, events.TypeSummary, evs[1].Type)
	assert.Equal(t, "Appointment on Wednesday.", evs[1].Message)
	assert.Equal(t, events.TypeBooked, evs[2].Type)
}

func TestMaskNumber(t *testing.T) {
	assert.Equal(t, "********456", maskNumber("+4930123456"))
	assert.Equal(t, "12", maskNumber("12"))
}
