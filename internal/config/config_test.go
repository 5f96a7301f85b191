package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthetl/internal/normalizer"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	return configPath
}

// validConfigYAML overrides a handful of defaults.
const validConfigYAML = `
logging:
  level: "debug"
  format: "json"
retry:
  max_attempts: 5
  initial_delay_ms: 100
  max_delay_ms: 5000
  backoff_multiplier: 2.0
  timeout_sec: 30
output:
  base_path: "./out"
  sqlite_path: "./out/etl.db"
processing:
  workers: 8
profiles:
  strict:
    base: substances
    min_year: 1995
    notice_markers: ["GRN", "Notice"]
  wide:
    base: substances-legacy
    notice_table: coarse
    notice_ceiling: 50
sources:
  fda:
    file: "testdata/FoodSubstances.csv"
    profile: strict
    year_columns: ["reg_administrative"]
  gras:
    profile: wide
`

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := LoadConfig(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 8, cfg.Processing.Workers)
	assert.Equal(t, 500, cfg.Processing.ChunkSize, "default kept")
	assert.Equal(t, "testdata/FoodSubstances.csv", cfg.Sources.FDA.File)
	assert.Equal(t, 4, cfg.Sources.FDA.SkipRows, "default kept")
	assert.Equal(t, []string{"reg_administrative"}, cfg.Sources.FDA.YearColumns)
	assert.Equal(t, "processed_gras_notices.csv", cfg.Sources.GRAS.Output)
	assert.True(t, cfg.Output.CreateBackup)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(createTempConfigFile(t, "invalid: yaml: content: [}"))
	assert.Error(t, err)
}

func TestLoadConfig_UnknownProfile(t *testing.T) {
	_, err := LoadConfig(createTempConfigFile(t, "sources:\n  fda:\n    profile: nope\n"))
	assert.ErrorIs(t, err, normalizer.ErrUnknownProfile)
}

func TestDefault_Valid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"missing source location", func(c *Config) { c.Sources.WHO.File = "" }, ErrSourceMissingURLOrFile},
		{"missing output name", func(c *Config) { c.Sources.CDC.Output = "" }, ErrSourceMissingOutput},
		{"negative skip rows", func(c *Config) { c.Sources.FDA.SkipRows = -1 }, ErrInvalidSkipRows},
		{"negative page size", func(c *Config) { c.Sources.CDC.PageSize = -1 }, ErrInvalidPageSize},
		{"negative rate limit", func(c *Config) { c.Sources.FSIS.RateLimitMs = -1 }, ErrInvalidRateLimit},
		{"summary range", func(c *Config) { c.Sources.FDA.SummaryFrom, c.Sources.FDA.SummaryTo = 2020, 2000 }, ErrInvalidSummaryRange},
		{"max attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"initial delay", func(c *Config) { c.Retry.InitialDelayMs = -1 }, ErrInvalidInitialDelay},
		{"backoff multiplier", func(c *Config) { c.Retry.BackoffMultiplier = 0.5 }, ErrInvalidBackoffMultiplier},
		{"timeout", func(c *Config) { c.Retry.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"output path", func(c *Config) { c.Output.BasePath = "" }, ErrMissingOutputPath},
		{"workers", func(c *Config) { c.Processing.Workers = 0 }, ErrInvalidWorkers},
		{"chunk size", func(c *Config) { c.Processing.ChunkSize = 0 }, ErrInvalidChunkSize},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
		{"notice table", func(c *Config) {
			c.Profiles = map[string]ProfileConfig{"x": {NoticeTable: "medium"}}
		}, ErrUnknownNoticeTable},
		{"year range", func(c *Config) {
			lo, hi := 2020, 2000
			c.Profiles = map[string]ProfileConfig{"x": {MinYear: &lo, MaxYear: &hi}}
		}, normalizer.ErrInvalidYearRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestConfig_ExtractionOptions(t *testing.T) {
	cfg, err := LoadConfig(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	strict, err := cfg.ExtractionOptions("strict")
	require.NoError(t, err)
	assert.Equal(t, 1995, strict.MinYear)
	assert.Equal(t, 50, strict.NoticeCeiling)
	assert.Equal(t, []string{"GRN", "Notice"}, strict.NoticeMarkers)

	wide, err := cfg.ExtractionOptions("wide")
	require.NoError(t, err)
	assert.Equal(t, 1900, wide.MinYear)
	assert.Equal(t, normalizer.CoarseNoticeTable, wide.NoticeTable)
	assert.Equal(t, 50, wide.NoticeCeiling)

	builtin, err := cfg.ExtractionOptions(normalizer.ProfileSubstancesLegacy)
	require.NoError(t, err)
	assert.Equal(t, normalizer.FineNoticeTable, builtin.NoticeTable)
}

func TestConfig_Source(t *testing.T) {
	cfg := Default()

	for _, name := range Datasets {
		src, err := cfg.Source(name)
		require.NoError(t, err)
		assert.NotEmpty(t, src.Output)
	}

	_, err := cfg.Source("nhanes")
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestSourceConfig_GetSource(t *testing.T) {
	local := SourceConfig{File: "a.csv", URL: "http://example.com/a.csv"}
	assert.True(t, local.IsLocalFile())
	assert.Equal(t, "a.csv", local.GetSource())

	remote := SourceConfig{URL: "http://example.com/a.csv", BackupURLs: []string{"http://mirror/a.csv"}}
	assert.False(t, remote.IsLocalFile())
	assert.Equal(t, []string{"http://example.com/a.csv", "http://mirror/a.csv"}, remote.GetAllURLs())
	assert.Equal(t, 250*time.Millisecond, (&SourceConfig{RateLimitMs: 250}).GetRateLimit())
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	rp := RetryPolicy{InitialDelayMs: 100, MaxDelayMs: 1000, BackoffMultiplier: 2.0, TimeoutSec: 30}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rp.GetRetryDelay(tt.attempt), "attempt %d", tt.attempt)
	}

	assert.Equal(t, 30*time.Second, rp.GetTimeout())
}

func TestConfig_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	cfg := Default()
	cfg.Processing.Workers = 2
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Processing.Workers)
	assert.Equal(t, cfg.Sources.FDA.YearColumns, loaded.Sources.FDA.YearColumns)
}

func TestConfig_GetOutputPath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("data/processed", "x.csv"), cfg.GetOutputPath("x.csv"))
}

func TestLoadConfig_SampleFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "etl.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.Sources.GRAS.NoticeFallback)
	assert.Equal(t, "data/processed/etl.db", cfg.Output.SQLitePath)
	assert.Equal(t, 2011, cfg.Verification.BaselineYear)
	assert.Len(t, cfg.Sources.FDA.YearColumns, 4)
}
