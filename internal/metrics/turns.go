package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		turnsTotal,
		turnLatencySeconds,
		snapshotsTotal,
		turnsRejected,
	)
}

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alap_turns_total",
			Help: "Completed conversation turns by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	turnLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alap_turn_latency_seconds",
			Help:    "Time from send to final state.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60, 120},
		},
		[]string{"provider", "outcome"},
	)

	snapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alap_stream_snapshots_total",
			Help: "Streaming snapshots applied to assistant messages.",
		},
		[]string{"provider"},
	)

	turnsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alap_turns_rejected_total",
			Help: "Sends rejected before a turn started.",
		},
		[]string{"reason"},
	)
)

// ObserveTurn records a finished turn. outcome is "finalized" or a failure kind.
func ObserveTurn(provider, outcome string, elapsed time.Duration) {
	turnsTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
	turnLatencySeconds.WithLabelValues(norm(provider), norm(outcome)).Observe(elapsed.Seconds())
}

func SnapshotApplied(provider string) {
	snapshotsTotal.WithLabelValues(norm(provider)).Inc()
}

func TurnRejected(reason string) {
	turnsRejected.WithLabelValues(norm(reason)).Inc()
}
