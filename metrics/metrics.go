// Package metrics provides Prometheus collectors for the shop:
//   - http_request_total, http_request_duration_seconds, http_request_in_flight
//   - rate_limiter_buckets_total
//   - cart_mutations_total by operation
//   - symptom_validations_total by result
//   - catalog_items
//
// All collectors are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen in last ~5 minutes)",
		},
	)

	CartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Persisted cart mutations",
		},
		[]string{"operation"},
	)

	SymptomValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symptom_validations_total",
			Help: "Symptom form submissions by validation outcome",
		},
		[]string{"result"},
	)

	CatalogItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_items",
			Help: "Medicines in the currently served catalog",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(CartMutations)
	prometheus.MustRegister(SymptomValidations)
	prometheus.MustRegister(CatalogItems)
}

// ObserveCartMutation counts one persisted cart mutation
func ObserveCartMutation(operation string) {
	CartMutations.WithLabelValues(operation).Inc()
}

// ObserveSymptomValidation counts one symptom submission
func ObserveSymptomValidation(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	SymptomValidations.WithLabelValues(result).Inc()
}

// SetCatalogItems records the size of the catalog after a refresh
func SetCatalogItems(count int) {
	CatalogItems.Set(float64(count))
}
