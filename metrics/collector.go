// Package metrics exports chain counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/otelwasm/smartengine/engine"
)

// Collector exposes the counters of an engine.ChainMetrics.
type Collector struct {
	metrics *engine.ChainMetrics

	bytesIn     *prometheus.Desc
	recordsOut  *prometheus.Desc
	invocations *prometheus.Desc
	errors      *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector reading m. Every series carries the
// given constant labels.
func NewCollector(namespace string, labels prometheus.Labels, m *engine.ChainMetrics) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, labels)
	}
	return &Collector{
		metrics:     m,
		bytesIn:     desc("bytes_in_total", "Total payload bytes of the batches entering the chain."),
		recordsOut:  desc("records_out_total", "Total records produced by the last stage of the chain."),
		invocations: desc("invocations_total", "Total transform invocations across all stages."),
		errors:      desc("errors_total", "Total batches that ended with a stage error."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesIn
	ch <- c.recordsOut
	ch <- c.invocations
	ch <- c.errors
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.metrics.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.bytesIn, prometheus.CounterValue, float64(s.BytesIn))
	ch <- prometheus.MustNewConstMetric(c.recordsOut, prometheus.CounterValue, float64(s.RecordsOut))
	ch <- prometheus.MustNewConstMetric(c.invocations, prometheus.CounterValue, float64(s.Invocations))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors))
}
