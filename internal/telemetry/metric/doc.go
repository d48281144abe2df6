// Package metric provides Prometheus metrics for keva.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - collector.go: scrape-time collector for keyspace statistics
//
// Metrics include:
//
//   - Command latency histograms and outcome counters
//   - Connection gauges
//   - Snapshot size and latency
//   - Expiration counters, split by lazy and sweep paths
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
