// Package metrics exposes Prometheus instrumentation for the scheduling engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegenerationsTotal counts schedule regenerations by outcome
	RegenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "airwave",
		Subsystem: "schedule",
		Name:      "regenerations_total",
		Help:      "Number of channel schedule regenerations by outcome.",
	}, []string{"outcome"})

	// BlocksWrittenTotal counts schedule blocks persisted
	BlocksWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "airwave",
		Subsystem: "schedule",
		Name:      "blocks_written_total",
		Help:      "Number of schedule blocks written to the store.",
	})

	// BlocksPrunedTotal counts schedule blocks pruned as stale history
	BlocksPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "airwave",
		Subsystem: "schedule",
		Name:      "blocks_pruned_total",
		Help:      "Number of fully elapsed schedule blocks pruned.",
	})

	// ResolverQueriesTotal counts now-resolver lookups by result
	ResolverQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "airwave",
		Subsystem: "resolver",
		Name:      "queries_total",
		Help:      "Number of now-playing lookups by result.",
	}, []string{"result"})

	// HorizonPassDuration observes the duration of horizon keeper passes
	HorizonPassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "airwave",
		Subsystem: "schedule",
		Name:      "horizon_pass_duration_seconds",
		Help:      "Duration of horizon keeper passes across all channels.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Outcome and result label values
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeCoalesced = "coalesced"
	OutcomeNoop      = "noop"

	ResultHit          = "hit"
	ResultNotScheduled = "not_scheduled"
	ResultError        = "error"
)
