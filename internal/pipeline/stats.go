// Package pipeline turns raw dataset rows into cleaned records and drives the
// fetch, process and write stages of each dataset job.
package pipeline

import (
	"maps"
	"slices"

	"healthetl/internal/logger"
	"healthetl/internal/metrics"
)

// Stats accumulates what happened to the rows of one batch. Each worker owns
// its own Stats; results are combined with Merge.
type Stats struct {
	// Valid counts records whose field passed validation.
	Valid map[string]int
	// Categories counts records per canonical label.
	Categories map[string]int
	// Sources counts which source won a reconciled field.
	Sources map[string]int
	Dataset string
	// Total counts processed records.
	Total int
	// Skipped counts malformed source rows dropped by the reader.
	Skipped int
	// Filtered counts source rows excluded by dataset filters.
	Filtered int
}

// NewStats returns an empty accumulator.
func NewStats(dataset string) *Stats {
	return &Stats{
		Dataset:    dataset,
		Valid:      make(map[string]int),
		Categories: make(map[string]int),
		Sources:    make(map[string]int),
	}
}

// Check counts field as valid when ok is set.
func (s *Stats) Check(field string, ok bool) {
	if ok {
		s.Valid[field]++
	}
}

// AddCategories counts each label once.
func (s *Stats) AddCategories(labels ...string) {
	for _, l := range labels {
		s.Categories[l]++
	}
}

// AddSource records the winning source of a reconciled field.
func (s *Stats) AddSource(source string) {
	if source != "" {
		s.Sources[source]++
	}
}

// Merge adds o into s.
func (s *Stats) Merge(o *Stats) {
	if o == nil {
		return
	}

	s.Total += o.Total
	s.Skipped += o.Skipped
	s.Filtered += o.Filtered

	for k, v := range o.Valid {
		s.Valid[k] += v
	}

	for k, v := range o.Categories {
		s.Categories[k] += v
	}

	for k, v := range o.Sources {
		s.Sources[k] += v
	}
}

// Rate returns the percentage of records with a valid field.
func (s *Stats) Rate(field string) float64 {
	if s.Total == 0 {
		return 0
	}

	return float64(s.Valid[field]) / float64(s.Total) * 100
}

// Counts converts the accumulator into metric values.
func (s *Stats) Counts() metrics.DatasetCounts {
	return metrics.DatasetCounts{
		Dataset:    s.Dataset,
		Total:      s.Total,
		Skipped:    s.Skipped,
		Filtered:   s.Filtered,
		Valid:      maps.Clone(s.Valid),
		Categories: maps.Clone(s.Categories),
	}
}

// Log writes the statistics in stable key order.
func (s *Stats) Log(l *logger.Logger) {
	l = l.With("dataset", s.Dataset)
	l.Info("processing statistics", "records", s.Total, "skipped", s.Skipped, "filtered", s.Filtered)

	for _, field := range slices.Sorted(maps.Keys(s.Valid)) {
		l.Info("valid field", "field", field, "count", s.Valid[field], "rate", s.Rate(field))
	}

	for _, label := range slices.Sorted(maps.Keys(s.Categories)) {
		l.Debug("category", "label", label, "count", s.Categories[label])
	}

	for _, src := range slices.Sorted(maps.Keys(s.Sources)) {
		l.Info("reconciled from", "source", src, "count", s.Sources[src])
	}
}
