package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "delivery_dispatch"

var (
	OrdersSubmitted    = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "orders_submitted_total", Help: "Orders accepted by SubmitOrder"})
	OrderTransitions   = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "order_transitions_total", Help: "Order state transitions by target status"}, []string{"status"})
	OffersTotal        = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "offers_total", Help: "Offers resolved by outcome"}, []string{"outcome"})
	ClaimConflicts     = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "claim_conflicts_total", Help: "Candidates skipped because another order held the claim"})
	CandidateExhausted = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "candidates_exhausted_total", Help: "Dispatch rounds that ended with no acceptance"})
	AssignLatency      = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "assign_latency_seconds", Help: "Time from order creation to rider acceptance", Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600}})
	RankLatency        = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "rank_latency_seconds", Help: "Candidate ranking latency seconds"})

	LocationUpdates      = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "location_updates_total", Help: "Location updates by result"}, []string{"result"})
	LocationMirrorErrors = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "location_mirror_errors_total", Help: "Failed writes to the redis location mirror"})
	ZonesActive          = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "zones_active", Help: "Active zones in the resolver cache"})

	IngestConsumed = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "ingest_messages_consumed_total", Help: "Location messages consumed from kafka"})
	IngestInvalid  = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "ingest_messages_invalid_total", Help: "Location messages rejected as invalid"})
	IngestFailed   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "ingest_updates_failed_total", Help: "Location messages that failed after retries"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "events_dropped_total", Help: "Order events dropped because the notify queue was full"})
	EventErrors   = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "event_errors_total", Help: "Order event delivery errors by sink"}, []string{"sink"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegisterRidersOnline exposes the live online count, read at scrape time so
// riders that went stale without an offline ping drop out. Call it once per
// process.
func RegisterRidersOnline(count func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{Namespace: namespace, Name: "riders_online", Help: "Riders online and not stale"},
		func() float64 { return float64(count()) })
}
