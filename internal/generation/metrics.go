package generation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommread_generation_requests_total",
			Help: "Total number of requests to the story generation API.",
		},
		[]string{"model", "status"},
	)
	generationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommread_generation_request_duration_seconds",
			Help:    "Histogram of story generation request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	generationRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommread_generation_retries_total",
			Help: "Total number of retried generation requests.",
		},
	)
	generationCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommread_generation_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
)
