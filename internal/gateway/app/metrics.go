package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveryJobsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watson",
			Name:      "delivery_jobs_processed_total",
			Help:      "Total delivery jobs processed by the worker.",
		},
		[]string{"status"}, // "sent", "retry", "failed"
	)

	deliverySendDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "watson",
			Name:      "delivery_send_duration_seconds",
			Help:      "Duration of chat-network send calls.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	rateGateWaitDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "watson",
			Name:      "rate_gate_wait_duration_seconds",
			Help:      "Time spent waiting on the pacing gate before a send.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	forwardEventsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watson",
			Name:      "forward_events_total",
			Help:      "Automation webhook deliveries by outcome.",
		},
		[]string{"outcome"}, // "delivered", "retry", "dropped"
	)

	forwardDecisionCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watson",
			Name:      "forward_decisions_total",
			Help:      "Rule engine decisions for inbound messages.",
		},
		[]string{"decision"}, // "allow", "block"
	)

	inboundMessagesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watson",
			Name:      "inbound_messages_total",
			Help:      "Inbound messages observed, by type.",
		},
		[]string{"type"},
	)
)
