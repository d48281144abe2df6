// Package metric provides Prometheus metrics for keva.
//
// It exposes metrics in Prometheus format for monitoring
// connection counts, command rates, latencies, and snapshot health.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics.
type Registry struct {
	// Connection metrics
	ConnectionsOpen     prometheus.Gauge
	ConnectionsAccepted prometheus.Counter
	ConnectionsRejected *prometheus.CounterVec

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Snapshot metrics
	SnapshotBytes    prometheus.Gauge
	SnapshotDuration prometheus.Histogram
	SnapshotFailures prometheus.Counter

	// Expiry metrics
	SweepCycles prometheus.Counter

	reg *prometheus.Registry
}

// NewRegistry creates the metrics registry with all collectors
// registered, including the Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keva_connections_open",
			Help: "Number of currently open client connections.",
		}),
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keva_connections_accepted_total",
			Help: "Total number of accepted client connections.",
		}),
		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keva_connections_rejected_total",
			Help: "Total number of rejected client connections.",
		}, []string{"reason"}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keva_commands_total",
			Help: "Total number of processed commands.",
		}, []string{"command", "outcome"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "keva_command_seconds",
			Help:    "Command processing latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 10),
		}, []string{"command"}),
		SnapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keva_snapshot_bytes",
			Help: "Size of the most recent snapshot in bytes.",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "keva_snapshot_seconds",
			Help:    "Snapshot write latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		SnapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keva_snapshot_failures_total",
			Help: "Total number of failed snapshot writes.",
		}),
		SweepCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keva_sweep_cycles_total",
			Help: "Total number of expiry sweep cycles.",
		}),
		reg: reg,
	}

	reg.MustRegister(
		r.ConnectionsOpen,
		r.ConnectionsAccepted,
		r.ConnectionsRejected,
		r.CommandsTotal,
		r.CommandDuration,
		r.SnapshotBytes,
		r.SnapshotDuration,
		r.SnapshotFailures,
		r.SweepCycles,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Register adds an extra collector, such as the keyspace collector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
