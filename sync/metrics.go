package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// deliveriesTotal counts delivery attempts.
	// Labels: target, result (synced, failed)
	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkquest",
			Subsystem: "mirror",
			Name:      "deliveries_total",
			Help:      "Total number of mirror delivery attempts",
		},
		[]string{"target", "result"},
	)

	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "checkquest",
			Subsystem: "mirror",
			Name:      "delivery_duration_seconds",
			Help:      "Duration of mirror deliveries in seconds, retries included",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"target"},
	)

	outboxBatchSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "checkquest",
			Subsystem: "outbox",
			Name:      "ready_events",
			Help:      "Events picked up by the last sync pass",
		},
	)

	remindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "checkquest",
			Subsystem: "schedules",
			Name:      "reminders_sent_total",
			Help:      "Total number of schedule reminders created",
		},
	)
)
