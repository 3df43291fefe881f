package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "chat",
			Name:      "poll_ticks_total",
			Help:      "Polling reconciler ticks by outcome",
		},
		[]string{"result"}, // ok, empty, error, stale, skipped
	)

	mergedMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "chat",
			Name:      "merged_messages_total",
			Help:      "Messages merged into the active store by source",
		},
		[]string{"source"}, // load, poll, send
	)

	sendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "chat",
			Name:      "sends_total",
			Help:      "Optimistic sends by kind and outcome",
		},
		[]string{"kind", "result"}, // result: confirmed, failed, rejected
	)

	documentUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "chat",
			Name:      "document_uploads_total",
			Help:      "Clinical-request document uploads by outcome",
		},
		[]string{"result"},
	)

	promotionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "chat",
			Name:      "promotions_total",
			Help:      "Virtual conversations promoted to persisted ones",
		},
	)
)
