package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics describes the outcome of allocation runs.
type Metrics struct {
	*runMetrics
}

func New() *Metrics {
	return &Metrics{
		runMetrics: newRunMetrics(),
	}
}

// Reset clears all per-problem metrics.
func (m *Metrics) Reset() {
	m.runMetrics.reset()
}

// Describe is necessary to implement the prometheus.Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.runMetrics.describe(ch)
}

// Collect is necessary to implement the prometheus.Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.runMetrics.collect(ch)
}

// WriteToTextfile writes the current metrics to path in the Prometheus text format,
// as consumed by the node exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(m); err != nil {
		return errors.WithStack(err)
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return errors.WithMessagef(err, "failed to write metrics to %s", path)
	}
	return nil
}
