package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adminbase_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adminbase_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adminbase_store_operations_total",
		Help: "Count of store operations by store, operation, and result",
	}, []string{"store", "operation", "result"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adminbase_login_attempts_total",
		Help: "Count of login attempts by result",
	}, []string{"result"})

	activations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adminbase_activations_total",
		Help: "Count of account activation attempts by result",
	}, []string{"result"})

	emailSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adminbase_email_sends_total",
		Help: "Count of notification email sends by kind and result",
	}, []string{"kind", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveStoreOperation increments the store operation counter.
func ObserveStoreOperation(store, operation, result string) {
	storeOperations.WithLabelValues(store, operation, result).Inc()
}

// ObserveLogin increments the login attempt counter with a result label.
func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// ObserveActivation increments the activation counter with a result label.
func ObserveActivation(result string) {
	activations.WithLabelValues(result).Inc()
}

// ObserveEmailSend increments the email delivery counter.
func ObserveEmailSend(kind, result string) {
	emailSends.WithLabelValues(kind, result).Inc()
}
