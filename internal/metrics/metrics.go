package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Messaging metrics
	ConversationsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_conversations_opened_total",
			Help: "Total open-or-create calls",
		},
		[]string{"role"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_messages_sent_total",
			Help: "Total messages appended",
		},
		[]string{"sender_type"},
	)

	MessagesMarkedRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_messages_marked_read_total",
			Help: "Total messages flipped to read",
		},
		[]string{"reader_role"},
	)

	RejectedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_messages_rejected_total",
			Help: "Messages rejected for empty text",
		},
	)
)
