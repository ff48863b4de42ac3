package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion pipeline counters, exposed via the /metrics server.
var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulsetrack",
		Name:      "events_ingested_total",
		Help:      "Events accepted and written to the store, by event name.",
	}, []string{"event_name"})

	EventsDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulsetrack",
		Name:      "events_deduped_total",
		Help:      "Duplicate event_id submissions absorbed as no-ops.",
	})

	BotEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulsetrack",
		Name:      "bot_events_total",
		Help:      "Events classified as bot traffic at ingestion.",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulsetrack",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter, by policy.",
	}, []string{"policy"})
)
