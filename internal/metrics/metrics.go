// Package metrics exposes process counters and gauges over
// prometheus/client_golang, served at /metrics alongside the monitor
// hub's /ws. The teacher pulls in client_golang only transitively
// through its chain-node dependency; here it becomes a directly used
// dependency since the server has genuine operational counters to
// expose (spec.md §2's component table, read as an operator would want
// to watch it).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every metric the server reports, plus the
// prometheus.Registerer they were registered against (its own private
// registry rather than the global default, so multiple Registry
// instances — e.g. one per test — never collide on metric names).
type Registry struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	ConnectionsActive prometheus.Gauge
	AuctionsActive    prometheus.Gauge
	TasksQueued       prometheus.Gauge
	BidsTotal         prometheus.Counter
	SettlementsTotal  *prometheus.CounterVec
	LoginsTotal       *prometheus.CounterVec
}

// New creates a private prometheus registry and registers every metric
// against it.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		Registerer: reg,
		Gatherer:   reg,

		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "auctiond_connections_active",
			Help: "Number of currently open TCP connections.",
		}),
		AuctionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "auctiond_auctions_active",
			Help: "Number of auctions currently live in the book.",
		}),
		TasksQueued: factory.NewGauge(prometheus.GaugeOpts{
			Name: "auctiond_tasks_queued",
			Help: "Number of tasks currently waiting in the dispatcher queue.",
		}),
		BidsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "auctiond_bids_total",
			Help: "Total number of bid attempts, of any outcome.",
		}),
		SettlementsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auctiond_settlements_total",
			Help: "Total number of auction settlements, labeled by outcome.",
		}, []string{"outcome"}),
		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auctiond_logins_total",
			Help: "Total number of login attempts, labeled by outcome.",
		}, []string{"outcome"}),
	}
}
