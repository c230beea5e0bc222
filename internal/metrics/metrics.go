// Package metrics counts what the workflow steps do. The registry is written
// as a node-exporter textfile when the tool exits.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pkg/errors"
)

const subsystem = "tidemodel"

type Metrics struct {
	registry      *prometheus.Registry
	steps         *prometheus.CounterVec
	stepLatency   *prometheus.HistogramVec
	downloadBytes prometheus.Counter
	clippedFiles  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "steps_total",
				Subsystem: subsystem,
				Help:      "Workflow steps run, by step and outcome.",
			},
			[]string{"step", "outcome"},
		),
		stepLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:      "step_duration_seconds",
				Subsystem: subsystem,
				Help:      "Workflow step durations in seconds.",
				Buckets:   []float64{0.01, 0.1, 1, 10, 60, 300, 900, 1800, 3600},
			},
			[]string{"step"},
		),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "download_bytes_total",
			Subsystem: subsystem,
			Help:      "Bytes transferred from the data service.",
		}),
		clippedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "clipped_files_total",
			Subsystem: subsystem,
			Help:      "Regional constituent grids written.",
		}),
	}
	m.registry.MustRegister(
		m.steps,
		m.stepLatency,
		m.downloadBytes,
		m.clippedFiles,
	)
	return m
}

// ObserveStep records one run of step that started at start.
func (m *Metrics) ObserveStep(step string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.steps.With(prometheus.Labels{
		"step":    step,
		"outcome": outcome,
	}).Inc()
	m.stepLatency.With(prometheus.Labels{
		"step": step,
	}).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddDownloadBytes(n int64) {
	if n > 0 {
		m.downloadBytes.Add(float64(n))
	}
}

func (m *Metrics) AddClippedFiles(n int) {
	if n > 0 {
		m.clippedFiles.Add(float64(n))
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrap(err, "Write metrics ["+path+"] failed")
	}
	return nil
}
