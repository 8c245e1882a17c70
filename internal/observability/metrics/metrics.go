package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "leadassistant"

// Metric names as gathered, for readers such as the admin stats endpoint.
const (
	TurnsTotalName      = namespace + "_conversation_turns_total"
	BookingsTotalName   = namespace + "_conversation_bookings_total"
	RecruitingTotalName = namespace + "_conversation_recruiting_inquiries_total"
	FailuresTotalName   = namespace + "_conversation_collaborator_failures_total"
	TurnLatencyName     = namespace + "_conversation_turn_latency_seconds"
)

// TurnMetrics records qualification turns. A nil *TurnMetrics is a no-op.
type TurnMetrics struct {
	turns      *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	bookings   *prometheus.CounterVec
	recruiting *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

func NewTurnMetrics(reg prometheus.Registerer) *TurnMetrics {
	m := &TurnMetrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Processed turns by channel, resulting stage and outcome",
		}, []string{"channel", "stage", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of one load, process and save cycle",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "bookings_total",
			Help:      "Confirmed appointments",
		}, []string{"channel"}),
		recruiting: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "recruiting_inquiries_total",
			Help:      "Sessions diverted into the recruiting flow",
		}, []string{"channel"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "collaborator_failures_total",
			Help:      "Failures of stores, queues and notifiers during a turn",
		}, []string{"component"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turns, m.latency, m.bookings, m.recruiting, m.failures)
	return m
}

func (m *TurnMetrics) ObserveTurn(channel, stage, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(channel, stage, outcome).Inc()
	m.latency.WithLabelValues(channel).Observe(elapsed.Seconds())
}

func (m *TurnMetrics) RecordBooking(channel string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(channel).Inc()
}

func (m *TurnMetrics) RecordRecruiting(channel string) {
	if m == nil {
		return
	}
	m.recruiting.WithLabelValues(channel).Inc()
}

func (m *TurnMetrics) RecordFailure(component string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(component).Inc()
}
