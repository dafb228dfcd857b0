// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "expense_advisor"

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"route", "status"},
	)

	expensesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_appended_total",
			Help:      "Ledger entries appended, by category.",
		},
		[]string{"category"},
	)

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently held by the store.",
	})

	sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_swept_total",
		Help:      "Idle sessions removed by the sweeper.",
	})

	eventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_publish_failures_total",
		Help:      "Ledger events that could not be published.",
	})
)

func ObserveRequest(route string, status int, elapsed time.Duration) {
	requestDuration.
		WithLabelValues(route, strconv.Itoa(status)).
		Observe(elapsed.Seconds())
}

func ExpenseAppended(category string) {
	expensesAppended.WithLabelValues(category).Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

func SessionsSwept(n int) {
	sessionsSwept.Add(float64(n))
}

func PublishFailed() {
	eventPublishFailures.Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
