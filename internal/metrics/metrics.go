package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bounded cardinality constants for metric labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	TaskOther = "other"
	KindOther = "other"
)

var knownTasks = map[string]struct{}{
	"grammar":   {},
	"entities":  {},
	"summarize": {},
	"keywords":  {},
	"classify":  {},
}

var knownKinds = map[string]struct{}{
	"rate_limited":        {},
	"server_error":        {},
	"network_or_timeout":  {},
	"client_error":        {},
	"parse_error":         {},
	"configuration_error": {},
	"unknown":             {},
}

// NormalizeTask maps arbitrary task names to the bounded task set
func NormalizeTask(task string) string {
	if _, ok := knownTasks[task]; ok {
		return task
	}
	return TaskOther
}

// NormalizeKind maps arbitrary failure kinds to the bounded kind set
func NormalizeKind(kind string) string {
	if _, ok := knownKinds[kind]; ok {
		return kind
	}
	return KindOther
}

// Upstream Metrics
var (
	// Attempts against the NLP provider, one per HTTP call
	UpstreamAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinicalnlp_upstream_attempts_total",
		Help: "Total number of upstream NLP provider calls by task and outcome",
	}, []string{"task", "outcome"})

	UpstreamRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinicalnlp_upstream_retries_total",
		Help: "Total number of retries scheduled after a transient upstream failure",
	}, []string{"task", "kind"})

	UpstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinicalnlp_upstream_failures_total",
		Help: "Total number of logical gateway calls that ended in failure",
	}, []string{"task", "kind"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinicalnlp_upstream_duration_ms",
		Help:    "Duration of a single upstream call in milliseconds",
		Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"task"})
)

// API Metrics
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinicalnlp_api_requests_total",
		Help: "Total number of API requests",
	}, []string{"method", "path", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinicalnlp_api_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
	}, []string{"method", "path", "status"})
)

// Helper functions for recording metrics

func RecordUpstreamAttempt(task, outcome string, durationMs float64) {
	task = NormalizeTask(task)
	UpstreamAttempts.WithLabelValues(task, outcome).Inc()
	UpstreamDuration.WithLabelValues(task).Observe(durationMs)
}

func RecordUpstreamRetry(task, kind string) {
	UpstreamRetries.WithLabelValues(NormalizeTask(task), NormalizeKind(kind)).Inc()
}

func RecordUpstreamFailure(task, kind string) {
	UpstreamFailures.WithLabelValues(NormalizeTask(task), NormalizeKind(kind)).Inc()
}

func RecordAPIRequest(method, path, statusCode string, durationMs float64) {
	APIRequestDuration.WithLabelValues(method, path, statusCode).Observe(durationMs)
	HTTPRequests.WithLabelValues(method, path, statusCode).Inc()
}

// Audit Metrics
var (
	AuditEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinicalnlp_audit_events_total",
		Help: "Total number of audit events by type and persistence outcome",
	}, []string{"event_type", "outcome"})

	AuditDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinicalnlp_audit_duration_ms",
		Help:    "Time spent recording an audit event in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"event_type"})
)

func RecordAuditEvent(eventType string, success bool, durationMs float64) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	AuditEvents.WithLabelValues(eventType, outcome).Inc()
	AuditDuration.WithLabelValues(eventType).Observe(durationMs)
}
