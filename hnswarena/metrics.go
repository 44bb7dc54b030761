package hnswarena

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histograms an Index reports, when
// metrics are enabled via WithMetricsRegisterer.
type Metrics struct {
	ElementInserts  prometheus.Counter
	ElementFrees    prometheus.Counter
	FreeSlotReuses  prometheus.Counter
	PoolExhaustions prometheus.Counter
	SearchQueries   prometheus.Counter
	SearchLatency   prometheus.Histogram
}

// NewMetrics registers a fresh set of metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ElementInserts: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswarena_element_inserts_total",
			Help: "Total elements inserted into the index.",
		}),
		ElementFrees: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswarena_element_frees_total",
			Help: "Total elements freed from the index.",
		}),
		FreeSlotReuses: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswarena_free_slot_reuses_total",
			Help: "Total allocations satisfied by reusing a freed slot instead of bumping the arena.",
		}),
		PoolExhaustions: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswarena_pool_exhaustions_total",
			Help: "Total allocations that failed because the arena's headroom pool had no free block left.",
		}),
		SearchQueries: factory.NewCounter(prometheus.CounterOpts{
			Name: "hnswarena_search_queries_total",
			Help: "Total Search calls.",
		}),
		SearchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "hnswarena_search_latency_seconds",
			Help: "Search call latency in seconds.",
		}),
	}
}
