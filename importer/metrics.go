package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_dispatches_total",
		Help: "Import messages sent to the queue, by outcome.",
	}, []string{"transport", "outcome"})

	dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "import_dispatch_duration_seconds",
		Help:    "Duration of one queue send in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"transport"})

	skippedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "import_skipped_entries_total",
		Help: "iStock entries skipped because no id could be extracted.",
	})
)
