// Package metrics defines the Prometheus collectors for the recognition
// pipeline and practice sessions.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Classification kinds.
const (
	KindHand    = "hand"
	KindEmotion = "emotion"
)

// Classification outcomes.
const (
	OutcomeMatch = "match"
	OutcomeNone  = "none"
	OutcomeFault = "fault"
)

// Metrics tracks classification volume and latency, gate emissions and
// live practice sessions.
type Metrics struct {
	Classifications        *prometheus.CounterVec
	ClassificationDuration *prometheus.HistogramVec
	Emissions              *prometheus.CounterVec
	ActiveSessions         prometheus.Gauge
	HTTPRequests           *prometheus.CounterVec
	HTTPDuration           *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signcoach_classifications_total",
			Help: "Total number of frames classified, by kind and outcome",
		}, []string{"kind", "outcome"}),
		ClassificationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signcoach_classification_duration_seconds",
			Help:    "Duration of a single frame classification",
			Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		}, []string{"kind"}),
		Emissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signcoach_gate_emissions_total",
			Help: "Total number of labels emitted by stability gates, by pattern kind",
		}, []string{"kind"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signcoach_active_sessions",
			Help: "Number of practice sessions currently open",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signcoach_http_requests_total",
			Help: "Total number of HTTP requests, by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signcoach_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveClassification records one classification. Call with time.Now()
// taken before the classifier ran.
func (m *Metrics) ObserveClassification(kind, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(kind, outcome).Inc()
	m.ClassificationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// IncrementEmission records a gate emission of a letter, digit or custom
// pattern. Labels themselves are not recorded; custom labels are unbounded.
func (m *Metrics) IncrementEmission(kind string) {
	if m == nil {
		return
	}
	m.Emissions.WithLabelValues(kind).Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}
