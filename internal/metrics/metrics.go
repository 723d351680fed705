// Package metrics holds Prometheus instruments that are used across the
// client.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FormSubmitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submit_total",
			Help: "Form submit attempts by form ID and outcome.",
		}, []string{"form", "outcome"})

	FormSubmitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "form_submit_duration_seconds",
			Help:    "Time spent inside form submission functions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"form"})

	APIRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_request_total",
			Help: "Requests sent to the platform API by endpoint and status code.",
		}, []string{"endpoint", "code"})
)

func init() {
	prometheus.MustRegister(
		FormSubmitTotal,
		FormSubmitDuration,
		APIRequestTotal,
	)
}
