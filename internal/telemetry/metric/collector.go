package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kevadb/keva/internal/store"
)

// KeyspaceCollector exports live keyspace statistics. Values are read
// from the store on every scrape rather than tracked incrementally.
type KeyspaceCollector struct {
	stats func() store.Stats

	keys        *prometheus.Desc
	ttlKeys     *prometheus.Desc
	expiredKeys *prometheus.Desc
}

// NewKeyspaceCollector creates a collector over the given stats source.
func NewKeyspaceCollector(stats func() store.Stats) *KeyspaceCollector {
	return &KeyspaceCollector{
		stats: stats,
		keys: prometheus.NewDesc(
			"keva_keys",
			"Number of live keys in the keyspace.",
			nil, nil,
		),
		ttlKeys: prometheus.NewDesc(
			"keva_keys_with_ttl",
			"Number of live keys carrying an expiration.",
			nil, nil,
		),
		expiredKeys: prometheus.NewDesc(
			"keva_expired_keys_total",
			"Total number of keys removed by expiration.",
			[]string{"path"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *KeyspaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.ttlKeys
	ch <- c.expiredKeys
}

// Collect implements prometheus.Collector.
func (c *KeyspaceCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(s.Keys))
	ch <- prometheus.MustNewConstMetric(c.ttlKeys, prometheus.GaugeValue, float64(s.TTLKeys))
	ch <- prometheus.MustNewConstMetric(c.expiredKeys, prometheus.CounterValue, float64(s.LazyExpired), "lazy")
	ch <- prometheus.MustNewConstMetric(c.expiredKeys, prometheus.CounterValue, float64(s.SweptExpired), "sweep")
}
