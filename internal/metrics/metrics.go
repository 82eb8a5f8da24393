// Package metrics holds the Prometheus collectors for a batch run. The tool
// is a one-shot command, so metrics are exported as a node_exporter textfile
// at the end of the run rather than served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all collectors for one run, registered on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	PairsTotal        *prometheus.CounterVec
	FailuresTotal     *prometheus.CounterVec
	TransformDuration prometheus.Histogram
	OutputBytesTotal  prometheus.Counter
	InputsDiscovered  *prometheus.GaugeVec
	RunDuration       prometheus.Gauge
	LastRunTimestamp  prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,

		PairsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicommake_pairs_total",
				Help: "Pairs processed by outcome",
			},
			[]string{"outcome"},
		),

		FailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicommake_failures_total",
				Help: "Failed pairs by error class",
			},
			[]string{"class"},
		),

		TransformDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dicommake_transform_duration_seconds",
				Help:    "Per-pair transform time distribution",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),

		OutputBytesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "dicommake_output_bytes_total",
				Help: "Bytes written to output documents",
			},
		),

		InputsDiscovered: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dicommake_inputs_discovered",
				Help: "Files matched by each input glob",
			},
			[]string{"set"},
		),

		RunDuration: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "dicommake_run_duration_seconds",
				Help: "Wall time of the last run",
			},
		),

		LastRunTimestamp: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "dicommake_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
	}
}

// ObservePair records one finished pair. class is only used for failures.
func (m *Metrics) ObservePair(outcome, class string, d time.Duration, outBytes int64) {
	m.PairsTotal.WithLabelValues(outcome).Inc()
	if outcome == "failed" {
		m.FailuresTotal.WithLabelValues(class).Inc()
		return
	}
	if outcome == "written" {
		m.TransformDuration.Observe(d.Seconds())
		m.OutputBytesTotal.Add(float64(outBytes))
	}
}

// ObserveDiscovery records how many files each glob matched.
func (m *Metrics) ObserveDiscovery(containers, images int) {
	m.InputsDiscovered.WithLabelValues("container").Set(float64(containers))
	m.InputsDiscovered.WithLabelValues("image").Set(float64(images))
}

// Finish records the run's wall time and completion stamp.
func (m *Metrics) Finish(start, end time.Time) {
	m.RunDuration.Set(end.Sub(start).Seconds())
	m.LastRunTimestamp.Set(float64(end.Unix()))
}

// WriteTextfile writes all collectors to path in the text exposition
// format, replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
