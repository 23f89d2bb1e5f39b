// Package metrics defines the engine's Prometheus instruments. They are
// registered by the metrics server and incremented at the call sites.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// DispatchTotal counts dispatch attempts by campaign type and outcome.
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_dispatch_total",
			Help: "Total number of retention action dispatch attempts",
		},
		[]string{"type", "status"},
	)

	// SweepDuration observes how long each periodic sweep takes.
	SweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retention_sweep_duration_seconds",
			Help:    "Duration of periodic retention sweeps",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sweep"},
	)

	// PlayersChurnedTotal counts players transitioned to churned by the
	// at-risk scan.
	PlayersChurnedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_players_churned_total",
			Help: "Total number of players marked churned",
		},
	)
)

// Collectors returns every instrument for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{DispatchTotal, SweepDuration, PlayersChurnedTotal}
}
