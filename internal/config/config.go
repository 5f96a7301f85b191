// Package config provides configuration management for the ETL jobs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"healthetl/internal/normalizer"
)

// Configuration validation errors.
var (
	ErrSourceMissingURLOrFile   = errors.New("either url or file is required")
	ErrSourceMissingOutput      = errors.New("output file name is required")
	ErrInvalidSkipRows          = errors.New("skip_rows must be non-negative")
	ErrInvalidPageSize          = errors.New("page_size must be non-negative")
	ErrInvalidRateLimit         = errors.New("rate_limit_ms must be non-negative")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrMissingOutputPath        = errors.New("output.base_path is required")
	ErrInvalidWorkers           = errors.New("processing.workers must be at least 1")
	ErrInvalidChunkSize         = errors.New("processing.chunk_size must be at least 1")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
	ErrUnknownSource            = errors.New("unknown source")
	ErrUnknownNoticeTable       = errors.New("unknown notice table")
	ErrInvalidSummaryRange      = errors.New("summary_from cannot exceed summary_to")
)

// Dataset names used as source keys and CLI subcommands.
const (
	DatasetFDA  = "fda"
	DatasetGRAS = "gras"
	DatasetCDC  = "cdc"
	DatasetWHO  = "who"
	DatasetFSIS = "fsis"
)

// ApprovalsByYearFile is the FDA approvals summary written next to the
// processed substances.
const ApprovalsByYearFile = "fda_approvals_by_year.csv"

// Datasets lists every dataset in run order.
var Datasets = []string{DatasetFDA, DatasetGRAS, DatasetCDC, DatasetWHO, DatasetFSIS}

// Config represents the complete ETL configuration.
type Config struct {
	Profiles     map[string]ProfileConfig `yaml:"profiles"`
	Sources      SourcesConfig            `yaml:"sources"`
	Output       OutputConfig             `yaml:"output"`
	Verification VerificationConfig       `yaml:"verification"`
	Logging      LoggingConfig            `yaml:"logging"`
	Retry        RetryPolicy              `yaml:"retry"`
	Processing   ProcessingConfig         `yaml:"processing"`
}

// SourcesConfig holds one block per dataset.
type SourcesConfig struct {
	FDA  SourceConfig `yaml:"fda"`
	GRAS SourceConfig `yaml:"gras"`
	CDC  SourceConfig `yaml:"cdc"`
	WHO  SourceConfig `yaml:"who"`
	FSIS SourceConfig `yaml:"fsis"`
}

// SourceConfig describes where a dataset comes from and how it is read.
type SourceConfig struct {
	Filters     map[string]string `yaml:"filters"`
	URL         string            `yaml:"url"`
	File        string            `yaml:"file"`
	Output      string            `yaml:"output"`
	Profile     string            `yaml:"profile"`
	Language    string            `yaml:"language"`
	BackupURLs  []string          `yaml:"backup_urls"`
	Encodings   []string          `yaml:"encodings"`
	YearColumns []string          `yaml:"year_columns"`
	SkipRows    int               `yaml:"skip_rows"`
	PageSize    int               `yaml:"page_size"`
	RateLimitMs int               `yaml:"rate_limit_ms"`
	SummaryFrom int               `yaml:"summary_from"`
	SummaryTo   int               `yaml:"summary_to"`

	// NoticeFallback estimates a filing year from the notice number when
	// neither the filing date nor its text yields one.
	NoticeFallback bool `yaml:"notice_fallback"`
}

// IsLocalFile returns true if this source uses a local file.
func (s *SourceConfig) IsLocalFile() bool {
	return s.File != ""
}

// GetSource returns the file path if local, or URL if remote.
func (s *SourceConfig) GetSource() string {
	if s.IsLocalFile() {
		return s.File
	}

	return s.URL
}

// GetAllURLs returns all URLs (primary + backups) for a source.
func (s *SourceConfig) GetAllURLs() []string {
	urls := []string{s.URL}
	urls = append(urls, s.BackupURLs...)

	return urls
}

// GetRateLimit returns the minimum spacing between requests.
func (s *SourceConfig) GetRateLimit() time.Duration {
	return time.Duration(s.RateLimitMs) * time.Millisecond
}

// ProfileConfig overrides a built-in extraction profile.
type ProfileConfig struct {
	MinYear       *int                     `yaml:"min_year"`
	MaxYear       *int                     `yaml:"max_year"`
	NoticeCeiling *int                     `yaml:"notice_ceiling"`
	Base          string                   `yaml:"base"`
	NoticeTable   string                   `yaml:"notice_table"`
	NoticeSteps   normalizer.NoticeTable   `yaml:"notice_steps"`
	NoticeMarkers []string                 `yaml:"notice_markers"`
	Categories    normalizer.CategoryTable `yaml:"categories"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// OutputConfig defines output behavior.
type OutputConfig struct {
	BasePath     string `yaml:"base_path"`
	SQLitePath   string `yaml:"sqlite_path"`
	MetricsPath  string `yaml:"metrics_path"`
	CreateBackup bool   `yaml:"create_backup"`
}

// ProcessingConfig bounds the parallel record processing.
type ProcessingConfig struct {
	Workers   int `yaml:"workers"`
	ChunkSize int `yaml:"chunk_size"`
}

// VerificationConfig controls the verification report.
type VerificationConfig struct {
	ReportPath   string `yaml:"report_path"`
	ResultsPath  string `yaml:"results_path"`
	BaselineYear int    `yaml:"baseline_year"`
	LatestYear   int    `yaml:"latest_year"`
	TopN         int    `yaml:"top_n"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Retry: RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        5000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        60,
		},
		Output: OutputConfig{
			BasePath:     "data/processed",
			CreateBackup: true,
		},
		Processing: ProcessingConfig{Workers: 4, ChunkSize: 500},
		Sources: SourcesConfig{
			FDA: SourceConfig{
				File:      "etl/data/source/FoodSubstances.csv",
				Output:    "processed_fda_substances.csv",
				Profile:   normalizer.ProfileSubstances,
				SkipRows:  4,
				Encodings: []string{"utf-8", "latin1", "cp1252", "iso-8859-1"},
				YearColumns: []string{
					"gras_pub_no",
					"most_recent_gras_pub_update",
					"reg_administrative",
					"regs_labeling_&_standards",
				},
			},
			GRAS: SourceConfig{
				File:      "etl/data/source/GRASNotices.csv",
				Output:    "processed_gras_notices.csv",
				Profile:   normalizer.ProfileSubstances,
				SkipRows:  2,
				Encodings: []string{"utf-8", "latin1", "cp1252", "iso-8859-1"},
			},
			CDC: SourceConfig{
				URL:         "https://data.cdc.gov/resource/hn4x-zwk7.json",
				Output:      "processed_cdc_obesity_data.csv",
				PageSize:    1000,
				RateLimitMs: 100,
			},
			WHO: SourceConfig{
				File:      "data/downloaded/BEFA58B_ALL_LATEST.csv",
				Output:    "processed_who_obesity_data.csv",
				Encodings: []string{"utf-8", "latin1"},
			},
			FSIS: SourceConfig{
				URL:         "https://www.fsis.usda.gov/fsis/api/recall/v/1",
				Output:      "processed_fsis_recalls.csv",
				Language:    "English",
				PageSize:    50,
				RateLimitMs: 500,
			},
		},
		Verification: VerificationConfig{
			ReportPath:   "verification/statistics_verification.md",
			ResultsPath:  "verification/statistics_results.json",
			BaselineYear: 2011,
			LatestYear:   2023,
			TopN:         5,
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of Default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, name := range Datasets {
		src, _ := c.Source(name)
		if err := src.validate(); err != nil {
			return fmt.Errorf("sources.%s: %w", name, err)
		}

		if src.Profile != "" {
			if _, err := c.ExtractionOptions(src.Profile); err != nil {
				return fmt.Errorf("sources.%s: %w", name, err)
			}
		}
	}

	for name := range c.Profiles {
		if _, err := c.ExtractionOptions(name); err != nil {
			return fmt.Errorf("profiles.%s: %w", name, err)
		}
	}

	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Output.BasePath == "" {
		return ErrMissingOutputPath
	}

	if c.Processing.Workers < 1 {
		return ErrInvalidWorkers
	}

	if c.Processing.ChunkSize < 1 {
		return ErrInvalidChunkSize
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

func (s *SourceConfig) validate() error {
	if s.URL == "" && s.File == "" {
		return ErrSourceMissingURLOrFile
	}

	if s.Output == "" {
		return ErrSourceMissingOutput
	}

	if s.SkipRows < 0 {
		return ErrInvalidSkipRows
	}

	if s.PageSize < 0 {
		return ErrInvalidPageSize
	}

	if s.RateLimitMs < 0 {
		return ErrInvalidRateLimit
	}

	if s.SummaryFrom != 0 && s.SummaryTo != 0 && s.SummaryFrom > s.SummaryTo {
		return ErrInvalidSummaryRange
	}

	return nil
}

// Source returns the configuration block of a dataset.
func (c *Config) Source(name string) (*SourceConfig, error) {
	switch name {
	case DatasetFDA:
		return &c.Sources.FDA, nil
	case DatasetGRAS:
		return &c.Sources.GRAS, nil
	case DatasetCDC:
		return &c.Sources.CDC, nil
	case DatasetWHO:
		return &c.Sources.WHO, nil
	case DatasetFSIS:
		return &c.Sources.FSIS, nil
	}

	return &SourceConfig{}, fmt.Errorf("%w: %s", ErrUnknownSource, name)
}

// ExtractionOptions resolves a profile name: a configured profile layered on
// its base, or one of the built-in profiles.
func (c *Config) ExtractionOptions(name string) (normalizer.Options, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return normalizer.Profile(name)
	}

	opts, err := normalizer.Profile(p.Base)
	if err != nil {
		return normalizer.Options{}, err
	}

	if p.MinYear != nil {
		opts.MinYear = *p.MinYear
	}

	if p.MaxYear != nil {
		opts.MaxYear = *p.MaxYear
	}

	if p.NoticeCeiling != nil {
		opts.NoticeCeiling = *p.NoticeCeiling
	}

	if p.NoticeTable != "" {
		table, ok := normalizer.NoticeTables[p.NoticeTable]
		if !ok {
			return normalizer.Options{}, fmt.Errorf("%w: %s", ErrUnknownNoticeTable, p.NoticeTable)
		}

		opts.NoticeTable = table
	}

	if len(p.NoticeSteps) > 0 {
		opts.NoticeTable = p.NoticeSteps
	}

	if p.NoticeMarkers != nil {
		opts.NoticeMarkers = p.NoticeMarkers
	}

	if len(p.Categories) > 0 {
		opts.Categories = p.Categories
	}

	if err := opts.Validate(); err != nil {
		return normalizer.Options{}, err
	}

	return opts, nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// GetOutputPath joins a processed file name onto output.base_path.
func (c *Config) GetOutputPath(file string) string {
	return filepath.Join(c.Output.BasePath, file)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Output: %s, Workers: %d, MaxAttempts: %d, Profiles: %d}",
		c.Output.BasePath,
		c.Processing.Workers,
		c.Retry.MaxAttempts,
		len(c.Profiles),
	)
}
