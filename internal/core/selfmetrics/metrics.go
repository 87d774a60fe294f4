// Package selfmetrics tracks what the agent itself is doing (poll cycles,
// failures, values sent) as Prometheus metrics and serves them along with
// some status information over HTTP.
package selfmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rediskeys"

// Metrics is the set of internal metrics.  A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	cycles         prometheus.Counter
	cycleDuration  prometheus.Histogram
	targetFailures *prometheus.CounterVec
	dispatched     *prometheus.CounterVec
	metricFailures *prometheus.CounterVec
}

// New creates the metrics and registers them on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Number of completed poll cycles",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "How long a poll cycle over all targets took",
			Buckets:   prometheus.DefBuckets,
		}),
		targetFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "target_failures_total",
			Help:      "Number of times a target was skipped for a cycle",
		}, []string{"target", "reason"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_dispatched_total",
			Help:      "Number of values handed to the writer",
		}, []string{"target"}),
		metricFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_failures_total",
			Help:      "Number of configured metrics that could not be reported",
		}, []string{"target", "reason"}),
	}

	m.registry.MustRegister(m.cycles, m.cycleDuration, m.targetFailures, m.dispatched, m.metricFailures)
	return m
}

// Registry is the Prometheus registry holding the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// TrackDatapointsSent exposes a running total of datapoints accepted by
// SignalFx ingest.
func (m *Metrics) TrackDatapointsSent(sent func() int64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signalfx_datapoints_sent_total",
		Help:      "Number of datapoints successfully sent to SignalFx",
	}, func() float64 {
		return float64(sent())
	}))
}

// CycleCompleted records a finished poll cycle
func (m *Metrics) CycleCompleted(took time.Duration) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.cycleDuration.Observe(took.Seconds())
}

// TargetFailed records a target that was skipped
func (m *Metrics) TargetFailed(target, reason string) {
	if m == nil {
		return
	}
	m.targetFailures.WithLabelValues(target, reason).Inc()
}

// MetricDispatched records a value sent for target
func (m *Metrics) MetricDispatched(target string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(target).Inc()
}

// MetricFailed records a metric that could not be reported
func (m *Metrics) MetricFailed(target, reason string) {
	if m == nil {
		return
	}
	m.metricFailures.WithLabelValues(target, reason).Inc()
}
