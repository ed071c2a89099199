// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Solana RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCErrors      *prometheus.CounterVec

	// Provisioning metrics
	WorkflowTransitions   *prometheus.CounterVec
	WorkflowRuns          *prometheus.CounterVec
	WorkflowDuration      prometheus.Histogram
	TransactionsSubmitted *prometheus.CounterVec
	TransactionsConfirmed *prometheus.CounterVec

	// API metrics
	APIRequests        *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the metrics on reg.
func NewMetricsWith(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "taxed_token"
	}
	factory := promauto.With(reg)

	return &Metrics{
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_errors_total",
			Help:      "Total number of failed Solana RPC calls by method",
		}, []string{"method"}),

		WorkflowTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provision",
			Name:      "state_transitions_total",
			Help:      "Total number of provisioning workflow transitions by target state",
		}, []string{"state"}),
		WorkflowRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provision",
			Name:      "runs_total",
			Help:      "Total number of provisioning runs by status",
		}, []string{"status"}),
		WorkflowDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provision",
			Name:      "duration_seconds",
			Help:      "Provisioning run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		TransactionsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provision",
			Name:      "transactions_submitted_total",
			Help:      "Total number of transactions submitted by kind",
		}, []string{"kind"}),
		TransactionsConfirmed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provision",
			Name:      "transactions_confirmed_total",
			Help:      "Total number of transactions by kind and outcome",
		}, []string{"kind", "outcome"}),

		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		}, []string{"method", "route", "status"}),
		APIRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRPCError increments the failed RPC counter.
func RecordRPCError(method string) {
	DefaultMetrics.RPCErrors.WithLabelValues(method).Inc()
}

// RecordWorkflowState records a workflow transition into state.
func RecordWorkflowState(state string) {
	DefaultMetrics.WorkflowTransitions.WithLabelValues(state).Inc()
}

// RecordWorkflowRun records a finished provisioning run.
func RecordWorkflowRun(status string, durationSeconds float64) {
	DefaultMetrics.WorkflowRuns.WithLabelValues(status).Inc()
	DefaultMetrics.WorkflowDuration.Observe(durationSeconds)
}

// RecordTransaction records a submitted transaction and its outcome.
func RecordTransaction(kind string, err error) {
	DefaultMetrics.TransactionsSubmitted.WithLabelValues(kind).Inc()
	outcome := "confirmed"
	if err != nil {
		outcome = "failed"
	}
	DefaultMetrics.TransactionsConfirmed.WithLabelValues(kind, outcome).Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, route, status string, seconds float64) {
	DefaultMetrics.APIRequests.WithLabelValues(method, route, status).Inc()
	DefaultMetrics.APIRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
