package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide Prometheus metrics.
type Metrics struct {
	WalletLogins    prometheus.Counter
	TokenRefreshes  prometheus.Counter
	ProofsApplied   *prometheus.CounterVec
	ProofConflicts  prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		WalletLogins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "weaveid_wallet_logins_total",
			Help: "Total number of successful wallet sign-ins",
		}),
		TokenRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "weaveid_token_refreshes_total",
			Help: "Total number of successful token refreshes",
		}),
		ProofsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "weaveid_proofs_applied_total",
			Help: "Total number of identity proofs applied, by provider",
		}, []string{"provider"}),
		ProofConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "weaveid_proof_conflicts_total",
			Help: "Total number of proof submissions rejected as duplicates",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weaveid_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, status string, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
