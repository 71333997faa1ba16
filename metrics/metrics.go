// Package metrics provides Prometheus-based metrics recording for the
// orchestration layer: session lifecycle, routing decisions and collaborator
// calls. Components take a Recorder; the Nop recorder keeps metrics optional.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the minimal metrics interface consumed by the orchestration
// packages.
type Recorder interface {
	SessionStarted()
	SessionEnded()
	RoutingDecision(kind string)
	ObserveCollaborator(status string, duration time.Duration)
	BroadcastFailure()
}

// Nop discards all observations.
type Nop struct{}

// SessionStarted implements Recorder.
func (Nop) SessionStarted() {}

// SessionEnded implements Recorder.
func (Nop) SessionEnded() {}

// RoutingDecision implements Recorder.
func (Nop) RoutingDecision(string) {}

// ObserveCollaborator implements Recorder.
func (Nop) ObserveCollaborator(string, time.Duration) {}

// BroadcastFailure implements Recorder.
func (Nop) BroadcastFailure() {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// PrometheusRecorder implements Recorder using prometheus collectors
// registered on the default registry.
type PrometheusRecorder struct {
	sessionsActive      prometheus.Gauge
	sessionsTotal       *prometheus.CounterVec
	routingDecisions    *prometheus.CounterVec
	collaboratorTotal   *prometheus.CounterVec
	collaboratorSeconds *prometheus.HistogramVec
	broadcastFailures   prometheus.Counter
}

// NewPrometheusRecorder creates a recorder registered on the default
// registry. Call at most once per process.
func NewPrometheusRecorder() *PrometheusRecorder {
	return NewPrometheusRecorderWith(prometheus.DefaultRegisterer)
}

// NewPrometheusRecorderWith creates a recorder registered on reg.
func NewPrometheusRecorderWith(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roundtable_sessions_active",
			Help: "Number of currently active sessions",
		}),
		sessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roundtable_sessions_total",
				Help: "Total sessions by lifecycle event",
			},
			[]string{"event"},
		),
		routingDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roundtable_routing_decisions_total",
				Help: "Total routing decisions by kind",
			},
			[]string{"kind"},
		),
		collaboratorTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roundtable_collaborator_requests_total",
				Help: "Total collaborator (responder) requests by status",
			},
			[]string{"status"},
		),
		collaboratorSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roundtable_collaborator_request_duration_seconds",
				Help:    "Duration of collaborator requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		broadcastFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "roundtable_broadcast_failures_total",
			Help: "Total per-agent failures during broadcast fan-out",
		}),
	}
}

// SessionStarted implements Recorder.
func (p *PrometheusRecorder) SessionStarted() {
	p.sessionsActive.Inc()
	p.sessionsTotal.WithLabelValues("started").Inc()
}

// SessionEnded implements Recorder.
func (p *PrometheusRecorder) SessionEnded() {
	p.sessionsActive.Dec()
	p.sessionsTotal.WithLabelValues("ended").Inc()
}

// RoutingDecision implements Recorder.
func (p *PrometheusRecorder) RoutingDecision(kind string) {
	p.routingDecisions.WithLabelValues(kind).Inc()
}

// ObserveCollaborator implements Recorder.
func (p *PrometheusRecorder) ObserveCollaborator(status string, duration time.Duration) {
	p.collaboratorTotal.WithLabelValues(status).Inc()
	p.collaboratorSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// BroadcastFailure implements Recorder.
func (p *PrometheusRecorder) BroadcastFailure() {
	p.broadcastFailures.Inc()
}
