package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueryDuration tracks how long an aggregation pass takes
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jpeg_swap_query_duration_seconds",
			Help:    "Aggregation query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// ReadFailures counts contract reads and metadata fetches recovered with a fallback
	ReadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jpeg_swap_read_failures_total",
			Help: "Total number of recovered read failures",
		},
		[]string{"query", "source"},
	)

	// Commands counts action commands by outcome
	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jpeg_swap_commands_total",
			Help: "Total number of action commands",
		},
		[]string{"command", "outcome"},
	)

	// MetadataRequests counts metadata lookups by outcome
	MetadataRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jpeg_swap_metadata_requests_total",
			Help: "Total number of token metadata lookups",
		},
		[]string{"outcome"},
	)

	// RefreshTicks counts scheduled refresh passes
	RefreshTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jpeg_swap_refresh_ticks_total",
			Help: "Total number of scheduled refresh passes",
		},
	)

	// WrongNetwork is 1 while the connected chain differs from the configured one
	WrongNetwork = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jpeg_swap_wrong_network",
			Help: "Whether the connected chain differs from the configured chain",
		},
	)
)
