package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	codeValidationsTotal *prometheus.CounterVec
	activationsTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the activation
// service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brigada_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brigada_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		codeValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brigada_code_validations_total",
			Help: "Activation code preview attempts by outcome.",
		}, []string{"outcome"})

		activationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brigada_activations_total",
			Help: "Account activation completions by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, codeValidationsTotal, activationsTotal)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// CodeValidations exposes the preview outcome counter.
func CodeValidations() *prometheus.CounterVec {
	RegisterMetrics()
	return codeValidationsTotal
}

// Activations exposes the completion outcome counter.
func Activations() *prometheus.CounterVec {
	RegisterMetrics()
	return activationsTotal
}
