// Package report verifies the processed datasets and renders the statistics
// report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"healthetl/internal/config"
	"healthetl/internal/logger"
	"healthetl/internal/models"
	"healthetl/pkg/metadata"
)

// Correlated metrics, in report order.
const (
	MetricFDAApprovals = "fda_approvals"
	MetricGRASNotices  = "gras_notices"
	MetricRecalls      = "recalls"
)

// Metrics lists the correlated metrics in report order.
var Metrics = []string{MetricFDAApprovals, MetricGRASNotices, MetricRecalls}

// Results is everything the verification computes. Sections whose input file
// is missing are nil.
type Results struct {
	GeneratedAt  time.Time                 `json:"generated_at"`
	Datasets     map[string]DatasetSummary `json:"datasets"`
	FDA          *FDAStats                 `json:"fda,omitempty"`
	GRAS         *GRASStats                `json:"gras,omitempty"`
	Obesity      *ObesityStats             `json:"obesity,omitempty"`
	Correlations map[string]Correlation    `json:"temporal_correlations,omitempty"`
	Risk         *RiskPatterns             `json:"risk_patterns,omitempty"`
	Trends       *ObesityTrends            `json:"obesity_trends,omitempty"`
	Headers      map[string][]string       `json:"csv_headers,omitempty"`
	RunID        string                    `json:"run_id,omitempty"`
	Missing      []string                  `json:"missing_datasets,omitempty"`
}

// Complete reports whether every input dataset was present.
func (r *Results) Complete() bool {
	return len(r.Missing) == 0
}

// Verifier loads processed files and writes the report.
type Verifier struct {
	cfg     *config.Config
	log     *logger.Logger
	now     func() time.Time
	runID   string
	version string
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithRunID stamps results and the report signature with a run id.
func WithRunID(id string) Option {
	return func(v *Verifier) { v.runID = id }
}

// WithVersion records the program version in the report signature.
func WithVersion(version string) Option {
	return func(v *Verifier) { v.version = version }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier creates a verifier over cfg's output directory.
func NewVerifier(cfg *config.Config, log *logger.Logger, opts ...Option) *Verifier {
	v := &Verifier{cfg: cfg, log: log, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Analyze loads every processed file and computes the statistics.
func (v *Verifier) Analyze() (*Results, error) {
	base := v.cfg.Output.BasePath

	tables, missing, err := loadTables(base, Inputs(v.cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to load processed data: %w", err)
	}

	for _, key := range missing {
		v.log.Warn("processed dataset missing, skipping its sections", "dataset", key)
	}

	headers, err := csvHeaders(base)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed files: %w", err)
	}

	vc := v.cfg.Verification
	res := &Results{
		GeneratedAt: v.now().UTC().Truncate(time.Second),
		RunID:       v.runID,
		Missing:     missing,
		Datasets:    make(map[string]DatasetSummary, len(tables)),
		Headers:     headers,
	}

	for key, t := range tables {
		res.Datasets[key] = summarizeDataset(t)
	}

	if t, ok := tables[KeyFDA]; ok {
		res.FDA = analyzeFDA(t)
	}

	if t, ok := tables[KeyGRAS]; ok {
		res.GRAS = analyzeGRAS(t)
	}

	who, hasWHO := tables[KeyWHO]
	cdc, hasCDC := tables[KeyCDC]

	if hasWHO || hasCDC {
		res.Obesity = &ObesityStats{}
	}

	if hasWHO {
		res.Obesity.WHO = analyzeSource(who)
	}

	if hasCDC {
		res.Obesity.CDC = analyzeCDC(cdc, vc.BaselineYear, vc.LatestYear)
		res.Trends = analyzeTrends(cdc, vc.TopN)
		res.Correlations = correlate(tables, yearlyMeans(cdc))
	}

	if t, ok := tables[KeyRecalls]; ok {
		res.Risk = analyzeRisk(t, vc.TopN)
	}

	return res, nil
}

// correlate builds each yearly metric whose input is loaded and correlates it
// with the obesity means.
func correlate(tables map[string]models.Table, obesity map[int]float64) map[string]Correlation {
	series := make(map[string]map[int]float64)

	if t, ok := tables[KeyFDAYearly]; ok {
		series[MetricFDAApprovals] = seriesByYear(t, "year", "new_approvals")
	} else if t, ok := tables[KeyFDA]; ok {
		series[MetricFDAApprovals] = yearCounts(t.Column("approval_year"))
	}

	if t, ok := tables[KeyGRAS]; ok {
		series[MetricGRASNotices] = yearCounts(t.Column("filing_year"))
	}

	if t, ok := tables[KeyRecalls]; ok {
		series[MetricRecalls] = yearCounts(t.Column("year"))
	}

	out := make(map[string]Correlation, len(series))
	for metric, s := range series {
		out[metric] = Pearson(s, obesity)
	}

	return out
}

// Run analyzes the processed data, then writes the signed Markdown report and
// the JSON results to their configured paths.
func (v *Verifier) Run() (*Results, error) {
	start := time.Now()

	res, err := v.Analyze()
	if err != nil {
		return nil, err
	}

	vc := v.cfg.Verification

	report := metadata.Sign(Render(res), metadata.Info{
		Version:   v.version,
		RunID:     v.runID,
		Validated: res.Complete(),
	})

	if err := writeFile(vc.ReportPath, []byte(report)); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}

	if err := writeFile(vc.ResultsPath, append(data, '\n')); err != nil {
		return nil, err
	}

	v.log.Info("verification complete",
		"report", vc.ReportPath,
		"results", vc.ResultsPath,
		"datasets", len(res.Datasets),
		"missing", len(res.Missing),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return res, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
