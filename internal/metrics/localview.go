package metrics

import "github.com/prometheus/client_golang/prometheus"

// Local view Prometheus metrics.
var (
	ViewRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lamina",
			Name:      "view_requests_total",
			Help:      "Total number of local view computations",
		},
		[]string{"operation", "status"},
	)

	ViewRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lamina",
			Name:      "view_request_duration_seconds",
			Help:      "Local view computation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	ViewDocumentsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lamina",
			Name:      "view_documents_returned",
			Help:      "Number of documents returned per local view computation",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"operation"},
	)
)

var viewMetricsRegistered bool

// RegisterViewMetrics registers Prometheus local view metrics. Must be called once from main.
func RegisterViewMetrics() {
	if viewMetricsRegistered {
		return
	}
	prometheus.MustRegister(ViewRequestsTotal)
	prometheus.MustRegister(ViewRequestDuration)
	prometheus.MustRegister(ViewDocumentsReturned)
	viewMetricsRegistered = true
}
