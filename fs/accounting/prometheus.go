package accounting

import (
	"github.com/prometheus/client_golang/prometheus"
)

var namespace = "mediaserve_"

type mediaserveCollector struct {
	stats            *StatsInfo
	bytesTransferred *prometheus.Desc
	streams          *prometheus.Desc
	aborted          *prometheus.Desc
	active           *prometheus.Desc
	heads            *prometheus.Desc
	errors           *prometheus.Desc
}

// NewCollector makes a new prometheus collector reading the global
// stats
func NewCollector() prometheus.Collector {
	return NewCollectorStats(globalStats)
}

// NewCollectorStats makes a new prometheus collector reading stats
func NewCollectorStats(stats *StatsInfo) prometheus.Collector {
	return &mediaserveCollector{
		stats: stats,
		bytesTransferred: prometheus.NewDesc(namespace+"bytes_transferred_total",
			"Total body bytes written to clients",
			nil, nil,
		),
		streams: prometheus.NewDesc(namespace+"streams_total",
			"Total number of response bodies finished",
			nil, nil,
		),
		aborted: prometheus.NewDesc(namespace+"streams_aborted_total",
			"Total number of response bodies abandoned by the client",
			nil, nil,
		),
		active: prometheus.NewDesc(namespace+"streams_active",
			"Number of response bodies currently streaming",
			nil, nil,
		),
		heads: prometheus.NewDesc(namespace+"probes_total",
			"Total number of HEAD probes answered",
			nil, nil,
		),
		errors: prometheus.NewDesc(namespace+"errors_total",
			"Number of errors thrown",
			nil, nil,
		),
	}
}

// Describe is part of the Collector interface: https://godoc.org/github.com/prometheus/client_golang/prometheus#Collector
func (c *mediaserveCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesTransferred
	ch <- c.streams
	ch <- c.aborted
	ch <- c.active
	ch <- c.heads
	ch <- c.errors
}

// Collect is part of the Collector interface: https://godoc.org/github.com/prometheus/client_golang/prometheus#Collector
func (c *mediaserveCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.bytesTransferred, prometheus.CounterValue, float64(s.Bytes))
	ch <- prometheus.MustNewConstMetric(c.streams, prometheus.CounterValue, float64(s.Streams))
	ch <- prometheus.MustNewConstMetric(c.aborted, prometheus.CounterValue, float64(s.Aborted))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(s.Active))
	ch <- prometheus.MustNewConstMetric(c.heads, prometheus.CounterValue, float64(s.Heads))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors))
}
