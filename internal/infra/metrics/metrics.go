// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "OAuth login attempts by result (success/state_mismatch/missing_code/denied/exchange_failed/profile_failed/mint_failed).",
		},
		[]string{"result"},
	)

	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_redemptions_total",
			Help: "Redeem attempts by result (success/invalid_code/already_provisioned/bad_request/unauthenticated/rate_limited/error).",
		},
		[]string{"result"},
	)

	statusChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_status_checks_total",
			Help: "Session status checks by reported state.",
		},
		[]string{"state"},
	)

	reconcileRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_reconcile_repairs_total",
			Help: "Orphaned claims repaired by the reconciliation worker, by result.",
		},
		[]string{"result"},
	)

	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request latency distribution in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path", "status"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			loginsTotal, redemptionsTotal, statusChecksTotal,
			reconcileRunsTotal, httpLatency,
		)
	})
}

func ObserveLogin(result string)      { loginsTotal.WithLabelValues(result).Inc() }
func ObserveRedemption(result string) { redemptionsTotal.WithLabelValues(result).Inc() }
func ObserveStatus(state string)      { statusChecksTotal.WithLabelValues(state).Inc() }
func ObserveReconcile(result string)  { reconcileRunsTotal.WithLabelValues(result).Inc() }

func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	httpLatency.WithLabelValues(method, path, strconv.Itoa(status)).
		Observe(float64(elapsed.Milliseconds()))
}
