package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestVoiceMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewVoiceMetrics(reg)

	m.ObserveWebhook("gather", "ok", 0.4)
	m.ObserveWebhook("gather", "ok", 0.2)
	m.CollaboratorFailed("llm", "reply")
	m.ObserveCall("deferred")
	m.ObserveContactLookup("empty")
	m.SetActiveSessions(3)

	if got := testutil.ToFloat64(m.webhookTotal.WithLabelValues("gather", "ok")); got != 2 {
		t.Fatalf("expected 2 gather webhooks, got %v", got)
	}
	if got := testutil.ToFloat64(m.collaboratorFailure.WithLabelValues("llm", "reply")); got != 1 {
		t.Fatalf("expected 1 llm failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 3 {
		t.Fatalf("expected 3 active sessions, got %v", got)
	}
}

func TestVoiceMetricsNilSafe(t *testing.T) {
	var m *VoiceMetrics
	m.ObserveWebhook("voice", "ok", 0.1)
	m.CollaboratorFailed("speech", "opening")
	m.ObserveCall("dialed")
	m.ObserveContactLookup("ok")
	m.SetActiveSessions(1)
}
