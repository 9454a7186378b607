package halm

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Define metrics with promauto for auto-registration
var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "helix_alm_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of Helix ALM REST API requests in seconds",
			Buckets: []float64{
				0.01, // request < 10ms
				0.05, // request < 50ms
				0.1,  // request < 100ms
				0.25, // request < 250ms
				0.5,  // request < 500ms
				1,    // request < 1s
				2.5,  // request < 2.5s
				5,    // request < 5s
				10,   // request < 10s
				30,   // request < 30s; report-heavy resources can be slow
			},
		},
		[]string{"operation", "method", "status"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helix_alm_client",
			Name:      "requests_total",
			Help:      "Total number of Helix ALM REST API requests",
		},
		[]string{"operation", "method", "status"},
	)
)

// observeRequest records latency and outcome for one dispatched request.
func observeRequest(op, method string, status int, start time.Time) {
	s := strconv.Itoa(status)
	requestDuration.WithLabelValues(op, method, s).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(op, method, s).Inc()
}
