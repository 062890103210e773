package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for booking flows.
type BookingMetrics struct {
	submissionsTotal *prometheus.CounterVec
	submitLatency    *prometheus.HistogramVec
	accessChecks     *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthconnect",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Total booking submissions by outcome",
		}, []string{"kind", "outcome"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "healthconnect",
			Subsystem: "booking",
			Name:      "submit_latency_seconds",
			Help:      "Latency of backend booking submissions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		accessChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthconnect",
			Subsystem: "booking",
			Name:      "access_checks_total",
			Help:      "Access window evaluations for chat and video entry",
		}, []string{"mode", "result"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "healthconnect",
			Subsystem: "booking",
			Name:      "active_sessions",
			Help:      "Booking sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.submitLatency, m.accessChecks, m.activeSessions)
	return m
}

// ObserveSubmission records one finished submission. outcome is
// "confirmed", "failed" or "invalid".
func (m *BookingMetrics) ObserveSubmission(kind, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(kind, outcome).Inc()
	m.submitLatency.WithLabelValues(kind).Observe(seconds)
}

// ObserveAccessCheck records an access window evaluation. result is one of
// "open", "upcoming", "closed" or "denied".
func (m *BookingMetrics) ObserveAccessCheck(mode, result string) {
	if m == nil {
		return
	}
	m.accessChecks.WithLabelValues(mode, result).Inc()
}

func (m *BookingMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
