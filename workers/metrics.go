package workers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_runs_total",
		Help: "Full import runs, by outcome.",
	}, []string{"provider", "outcome"})

	lastRunEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "import_last_run_entries",
		Help: "Entry counts from the most recent import run.",
	}, []string{"kind"})

	truncatedListingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_truncated_listings_total",
		Help: "Import runs whose directory listing was cut short by the provider.",
	}, []string{"provider"})

	lastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "import_last_run_timestamp_seconds",
		Help: "Unix time at which the most recent import run finished.",
	})
)
