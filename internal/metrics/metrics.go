package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	purchaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "artoo",
			Subsystem: "purchases",
			Name:      "transitions_total",
			Help:      "Purchase lifecycle transitions by name and outcome.",
		},
		[]string{"transition", "outcome"},
	)

	reaperCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "artoo",
			Subsystem: "reaper",
			Name:      "cancelled_total",
			Help:      "Unpaid purchases cancelled by the reaper.",
		},
	)

	reaperFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "artoo",
			Subsystem: "reaper",
			Name:      "failures_total",
			Help:      "Purchases the reaper failed to cancel.",
		},
	)

	reaperSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "artoo",
			Subsystem: "reaper",
			Name:      "skipped_runs_total",
			Help:      "Sweeps skipped because another sweep held the lock.",
		},
	)

	reaperDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "artoo",
			Subsystem: "reaper",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of unpaid purchase sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		purchaseTransitions,
		reaperCancelled,
		reaperFailures,
		reaperSkipped,
		reaperDuration,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordTransition counts one lifecycle transition attempt.
func RecordTransition(transition, outcome string) {
	purchaseTransitions.WithLabelValues(transition, outcome).Inc()
}

// RecordSweep captures the result of one reaper sweep.
func RecordSweep(cancelled, failed int, dur time.Duration) {
	reaperCancelled.Add(float64(cancelled))
	reaperFailures.Add(float64(failed))
	reaperDuration.Observe(dur.Seconds())
}

func RecordSkippedSweep() {
	reaperSkipped.Inc()
}
