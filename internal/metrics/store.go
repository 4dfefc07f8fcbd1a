package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(persistTotal, corruptRecoveries, sessionsGauge)
}

var (
	persistTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alap_persist_total",
			Help: "Session list persistence attempts by result (written/skipped_empty/error).",
		},
		[]string{"result"},
	)

	corruptRecoveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alap_corrupt_state_recoveries_total",
			Help: "Loads that discarded unreadable persisted state.",
		},
	)

	sessionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alap_sessions",
			Help: "Sessions currently held by the store.",
		},
	)
)

func Persisted(result string) {
	persistTotal.WithLabelValues(norm(result)).Inc()
}

func CorruptStateRecovered() {
	corruptRecoveries.Inc()
}

func SetSessions(n int) {
	sessionsGauge.Set(float64(n))
}
