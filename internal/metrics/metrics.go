// Package metrics records per-run dataset statistics in Prometheus form and
// exports them as a node_exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gauges of one ETL run on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	Records     *prometheus.GaugeVec
	Skipped     *prometheus.GaugeVec
	Filtered    *prometheus.GaugeVec
	ValidFields *prometheus.GaugeVec
	Categories  *prometheus.GaugeVec
	JobDuration *prometheus.HistogramVec
	JobFailures *prometheus.CounterVec
}

// New creates a new Metrics instance with every ETL metric registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Records: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "healthetl_dataset_records",
			Help: "Records written per dataset in the last run",
		}, []string{"dataset"}),
		Skipped: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "healthetl_dataset_skipped_rows",
			Help: "Malformed source rows skipped per dataset",
		}, []string{"dataset"}),
		Filtered: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "healthetl_dataset_filtered_rows",
			Help: "Source rows excluded by dataset filters",
		}, []string{"dataset"}),
		ValidFields: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "healthetl_field_valid_records",
			Help: "Records whose field passed validation",
		}, []string{"dataset", "field"}),
		Categories: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "healthetl_category_records",
			Help: "Records per canonical category label",
		}, []string{"dataset", "label"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "healthetl_job_duration_seconds",
			Help:    "Duration of dataset jobs (fetch, process, write)",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"dataset"}),
		JobFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healthetl_job_failures_total",
			Help: "Dataset jobs that returned an error",
		}, []string{"dataset"}),
	}
}

// DatasetCounts is the subset of a run's statistics exported as gauges.
type DatasetCounts struct {
	Valid      map[string]int
	Categories map[string]int
	Dataset    string
	Total      int
	Skipped    int
	Filtered   int
}

// ObserveDataset records the counters of one finished dataset.
func (m *Metrics) ObserveDataset(c DatasetCounts) {
	m.Records.WithLabelValues(c.Dataset).Set(float64(c.Total))
	m.Skipped.WithLabelValues(c.Dataset).Set(float64(c.Skipped))
	m.Filtered.WithLabelValues(c.Dataset).Set(float64(c.Filtered))

	for field, n := range c.Valid {
		m.ValidFields.WithLabelValues(c.Dataset, field).Set(float64(n))
	}

	for label, n := range c.Categories {
		m.Categories.WithLabelValues(c.Dataset, label).Set(float64(n))
	}
}

// ObserveJob records the duration of a job.
// Call with time.Now() at the start of the job.
func (m *Metrics) ObserveJob(dataset string, start time.Time) {
	m.JobDuration.WithLabelValues(dataset).Observe(time.Since(start).Seconds())
}

// IncrementFailure records a failed job.
func (m *Metrics) IncrementFailure(dataset string) {
	m.JobFailures.WithLabelValues(dataset).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
