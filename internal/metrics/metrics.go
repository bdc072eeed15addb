// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingest outcomes recorded per request.
const (
	OutcomeStored   = "stored"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

var (
	initOnce sync.Once

	eventsIngestedCounter  *prometheus.CounterVec
	insertDurationMetric   prometheus.Histogram
	rawQueriesCounter      prometheus.Counter
	rawQueryDurationMetric prometheus.Histogram
	blobOffloadsCounter    prometheus.Counter
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		eventsIngestedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_ingested_total",
				Help: "Total number of event ingestion requests by outcome.",
			},
			[]string{"outcome"},
		)

		insertDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "event_insert_duration_seconds",
				Help:    "Duration of ledger insert calls in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		rawQueriesCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "raw_queries_total",
				Help: "Total number of restricted ad-hoc read queries executed.",
			},
		)

		rawQueryDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "raw_query_duration_seconds",
				Help:    "Duration of restricted ad-hoc read queries in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		blobOffloadsCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "blob_offloads_total",
				Help: "Total number of payloads off-loaded to the blob store.",
			},
		)

		prometheus.MustRegister(
			eventsIngestedCounter,
			insertDurationMetric,
			rawQueriesCounter,
			rawQueryDurationMetric,
			blobOffloadsCounter,
		)

		// Ensure outcome labels are visible at /metrics before first increment.
		for _, outcome := range []string{
			OutcomeStored,
			OutcomeConflict,
			OutcomeInvalid,
			OutcomeError,
		} {
			eventsIngestedCounter.WithLabelValues(outcome)
		}
	})
}

func IncIngested(outcome string) {
	Init()
	eventsIngestedCounter.WithLabelValues(outcome).Inc()
}

func ObserveInsertDuration(d time.Duration) {
	Init()
	insertDurationMetric.Observe(d.Seconds())
}

func IncRawQuery() {
	Init()
	rawQueriesCounter.Inc()
}

func ObserveRawQueryDuration(d time.Duration) {
	Init()
	rawQueryDurationMetric.Observe(d.Seconds())
}

func IncBlobOffload() {
	Init()
	blobOffloadsCounter.Inc()
}
