package integration

import (
	"path/filepath"
	"testing"

	"healthetl/internal/config"
)

// fixture returns the path of a file under test/fixtures.
func fixture(name string) string {
	return filepath.Join("..", "fixtures", name)
}

// fixtureConfig points every source at a local fixture and every output at a
// temporary directory.
func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()

	cfg := config.Default()
	cfg.Output.BasePath = filepath.Join(dir, "processed")
	cfg.Output.SQLitePath = filepath.Join(dir, "etl.db")
	cfg.Output.MetricsPath = filepath.Join(dir, "etl.prom")
	cfg.Verification.ReportPath = filepath.Join(dir, "verification", "report.md")
	cfg.Verification.ResultsPath = filepath.Join(dir, "verification", "results.json")
	cfg.Verification.BaselineYear = 1995
	cfg.Verification.LatestYear = 2001

	cfg.Sources.FDA.File = fixture("FoodSubstances.csv")
	cfg.Sources.GRAS.File = fixture("GRASNotices.csv")
	cfg.Sources.GRAS.NoticeFallback = true
	cfg.Sources.WHO.File = fixture("who_obesity.csv")
	cfg.Sources.CDC.File = fixture("cdc_obesity.json")
	cfg.Sources.FSIS.File = fixture("recalls.json")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("fixture config invalid: %v", err)
	}

	return cfg
}
