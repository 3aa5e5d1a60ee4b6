package metric

import "github.com/prometheus/client_golang/prometheus"

// SessionSource reports live session counts per server id.
type SessionSource interface {
	CountByServer() map[string]int
}

// Collector reports live sessions at scrape time.
type Collector struct {
	source SessionSource
	active *prometheus.Desc
}

// NewCollector creates a collector reading from source.
func NewCollector(source SessionSource) *Collector {
	return &Collector{
		source: source,
		active: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sessions_active"),
			"Live sessions per LysKOM server.",
			[]string{"server"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.active
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for server, n := range c.source.CountByServer() {
		ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(n), server)
	}
}
