// Package metrics declares the Prometheus instruments shared by the
// bookstore services. Instruments are registered once through promauto and
// exposed on each service's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bazar",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Gateway cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bazar",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Gateway cache misses",
	})

	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bazar",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Entries evicted by the LRU bound",
	})

	CacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bazar",
		Subsystem: "cache",
		Name:      "invalidations_total",
		Help:      "Invalidation requests processed by the gateway",
	})

	ReplicationSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazar",
		Subsystem: "replication",
		Name:      "sends_total",
		Help:      "Mutations propagated to peer replicas",
	}, []string{"status"})

	ReplicationAppliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bazar",
		Subsystem: "replication",
		Name:      "applies_total",
		Help:      "Replica mutations applied locally",
	})

	InvalidationSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazar",
		Subsystem: "replication",
		Name:      "invalidation_sends_total",
		Help:      "Cache-invalidate calls issued to the gateway",
	}, []string{"status"})

	RestockRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bazar",
		Subsystem: "catalog",
		Name:      "restock_runs_total",
		Help:      "Restock cycles executed by the primary replica",
	})

	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazar",
		Subsystem: "order",
		Name:      "purchases_total",
		Help:      "Purchase attempts by outcome",
	}, []string{"status"})

	StoreJournalErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bazar",
		Subsystem: "store",
		Name:      "journal_errors_total",
		Help:      "Record store journal append failures",
	})
)
