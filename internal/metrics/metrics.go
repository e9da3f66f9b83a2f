package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the booking desk outcomes worth alerting on. A nil *Metrics is a no-op.
type Metrics struct {
	classificationFallback *prometheus.CounterVec
	actionTotal            *prometheus.CounterVec
	paymentVerification    *prometheus.CounterVec
	webhookEvents          *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		classificationFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingdesk",
			Name:      "classification_fallback_total",
			Help:      "Bookings whose status did not map cleanly onto a category",
		}, []string{"reason"}),
		actionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingdesk",
			Name:      "action_total",
			Help:      "Booking actions by outcome",
		}, []string{"action", "outcome"}),
		paymentVerification: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingdesk",
			Name:      "payment_verification_total",
			Help:      "Server-side payment verifications after SDK confirmation",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingdesk",
			Name:      "webhook_events_total",
			Help:      "Payment processor webhook deliveries by event type and outcome",
		}, []string{"type", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.classificationFallback, m.actionTotal, m.paymentVerification, m.webhookEvents)
	return m
}

func (m *Metrics) ObserveFallback(reason string) {
	if m == nil {
		return
	}
	m.classificationFallback.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.actionTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveVerification(outcome string) {
	if m == nil {
		return
	}
	m.paymentVerification.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveWebhook(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}
