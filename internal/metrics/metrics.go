package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pv_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Messaging metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pv_ws_connections_active",
			Help: "Currently open WebSocket connections",
		},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_messages_sent_total",
			Help: "Total messages persisted and fanned out",
		},
		[]string{"kind"}, // "private" or "group"
	)

	SendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_send_errors_total",
			Help: "Total failed send attempts",
		},
		[]string{"kind"}, // "authentication", "validation", "authorization", "persistence"
	)

	HistoryQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_history_queries_total",
			Help: "Total conversation history loads",
		},
		[]string{"kind"},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
