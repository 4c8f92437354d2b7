package metrics

import "github.com/prometheus/client_golang/prometheus"

// VoiceMetrics exposes counters/histograms for the call booking flow.
type VoiceMetrics struct {
	webhookTotal        *prometheus.CounterVec
	webhookLatency      *prometheus.HistogramVec
	collaboratorFailure *prometheus.CounterVec
	callsTotal          *prometheus.CounterVec
	contactLookups      *prometheus.CounterVec
	activeSessions      prometheus.Gauge
}

func NewVoiceMetrics(reg prometheus.Registerer) *VoiceMetrics {
	m := &VoiceMetrics{
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "telephony",
			Name:      "webhook_total",
			Help:      "Total Twilio voice webhooks handled",
		}, []string{"route", "outcome"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voicebooking",
			Subsystem: "telephony",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of voice webhook processing, model and speech calls included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		collaboratorFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "conversation",
			Name:      "collaborator_failures_total",
			Help:      "Failures of the language model or speech synthesis during a turn",
		}, []string{"collaborator", "stage"}),
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "calls",
			Name:      "placed_total",
			Help:      "Outbound calls by scheduling outcome",
		}, []string{"outcome"}),
		contactLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebooking",
			Subsystem: "contacts",
			Name:      "lookups_total",
			Help:      "Contact suggestion lookups by outcome",
		}, []string{"outcome"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicebooking",
			Subsystem: "conversation",
			Name:      "active_sessions",
			Help:      "Conversations held by the in-memory session store",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhookTotal, m.webhookLatency, m.collaboratorFailure, m.callsTotal, m.contactLookups, m.activeSessions)
	return m
}

func (m *VoiceMetrics) ObserveWebhook(route, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(route, outcome).Inc()
	m.webhookLatency.WithLabelValues(route).Observe(seconds)
}

// CollaboratorFailed counts a model or speech failure; stage is opening, reply or summary.
func (m *VoiceMetrics) CollaboratorFailed(collaborator, stage string) {
	if m == nil {
		return
	}
	m.collaboratorFailure.WithLabelValues(collaborator, stage).Inc()
}

func (m *VoiceMetrics) ObserveCall(outcome string) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(outcome).Inc()
}

func (m *VoiceMetrics) ObserveContactLookup(outcome string) {
	if m == nil {
		return
	}
	m.contactLookups.WithLabelValues(outcome).Inc()
}

func (m *VoiceMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
