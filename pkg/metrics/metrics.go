package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics records metadata for the expired-cart sweeper.
type SweepMetrics struct {
	duration *prometheus.HistogramVec
	swept    *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewSweepMetrics registers the sweeper metrics on the provided registerer.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	if reg == nil {
		return &SweepMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Duration of sweep passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	swept := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_discarded_total",
		Help: "Entries discarded by sweep passes.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_failure_total",
		Help: "Failed sweep passes.",
	}, []string{"job"})
	reg.MustRegister(duration, swept, failure)
	return &SweepMetrics{
		duration: duration,
		swept:    swept,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (s *SweepMetrics) ObserveDuration(job string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// AddSwept counts entries discarded by the named job.
func (s *SweepMetrics) AddSwept(job string, count int) {
	if s == nil || s.swept == nil || count <= 0 {
		return
	}
	s.swept.WithLabelValues(normalizeLabel(job)).Add(float64(count))
}

// IncFailure increments the failure counter for the named job.
func (s *SweepMetrics) IncFailure(job string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// UpstreamMetrics tracks calls against the marketplace backend.
type UpstreamMetrics struct {
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

// NewUpstreamMetrics registers upstream call metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Upstream API requests by operation and outcome.",
	}, []string{"operation", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_retries_total",
		Help: "Retried upstream reads by operation.",
	}, []string{"operation"})
	reg.MustRegister(requests, retries)
	return &UpstreamMetrics{requests: requests, retries: retries}
}

// IncRequest counts one upstream request with its outcome label.
func (u *UpstreamMetrics) IncRequest(operation, outcome string) {
	if u == nil || u.requests == nil {
		return
	}
	u.requests.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncRetry counts one retried upstream read.
func (u *UpstreamMetrics) IncRetry(operation string) {
	if u == nil || u.retries == nil {
		return
	}
	u.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
