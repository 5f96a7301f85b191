package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthetl/internal/config"
	"healthetl/internal/dataset"
	"healthetl/internal/logger"
	"healthetl/internal/metrics"
)

const fdaCSV = `Food Substances inventory
Generated for testing
Preamble line three
Preamble line four
Substance,Other Names,Used for (Technical Effect),CAS Reg No (or other ID),GRAS Pub No,Most Recent GRAS Pub Update,Reg administrative,Regs Labeling & Standards
ACETIC ACID,,"FLAVORING AGENT, PRESERVATIVE",64-19-7,,GRN 30,2005-03-01,
WATER,,SOLVENT,7732-18-5,,,,1999
BAD CAS,,COLOR,7732-18-6,,,,
`

const grasCSV = `GRAS Notices
Exported
GRAS Notice (GRN) No.,Substance,Intended Use,Basis,Notifier,Notifier Address,Date of filing,Date of closure,FDA's Letter
"=T(""30"")",Lactase,Dairy,Scientific,Acme,"1 Main St",3/15/2001,6/1/2001,FDA has no questions
GRN 40,Pectin,Jam,Scientific,Acme,,,,
`

const whoCSV = `DIM_TIME,GEO_NAME_SHORT,DIM_SEX,RATE_PER_100_N,RATE_PER_100_NL,RATE_PER_100_NU
2016,Chile,TOTAL,28.0,25.1,31.0
2016,Peru,TOTAL,19.7,17.0,22.5
2016,Broken,TOTAL,1,2,3,4
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func socrataServer(t *testing.T) *httptest.Server {
	t.Helper()

	rows := []map[string]any{
		{"yearstart": "2015", "locationabbr": "AL", "locationdesc": "Alabama", "data_value": "35.6"},
		{"yearstart": "2016", "locationabbr": "AK", "data_value": "31.4"},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("$select") != "" {
			_ = json.NewEncoder(w).Encode([]map[string]string{{"count": strconv.Itoa(len(rows))}})

			return
		}

		offset, _ := strconv.Atoi(q.Get("$offset"))
		if offset >= len(rows) {
			_, _ = w.Write([]byte("[]"))

			return
		}

		_ = json.NewEncoder(w).Encode(rows[offset:])
	}))
}

func fsisServer(t *testing.T) *httptest.Server {
	t.Helper()

	active := []map[string]any{{
		"field_recall_number": "010-2023", "field_recall_date": "2023-04-02", "langcode": "English",
		"field_states": "Texas,Ohio", "field_risk_level": "High - Class I", "field_active_notice": "True",
	}}
	closed := []map[string]any{
		{
			"field_recall_number": "002-2022", "field_recall_date": "2022-01-10", "langcode": "English",
			"field_states": "Nationwide", "field_qty_recovered": "2,000 pounds", "field_active_notice": "False",
		},
		{"field_recall_number": "002-2022", "field_recall_date": "2022-01-10", "langcode": "Spanish"},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("field_active_notice") == "True" {
			_ = json.NewEncoder(w).Encode(active)

			return
		}

		_ = json.NewEncoder(w).Encode(closed)
	}))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	require.NoError(t, os.MkdirAll(src, 0o755))

	cfg := config.Default()
	cfg.Output.BasePath = filepath.Join(dir, "processed")
	cfg.Retry.MaxAttempts = 1
	cfg.Retry.TimeoutSec = 5
	cfg.Processing.Workers = 2
	cfg.Processing.ChunkSize = 1

	cfg.Sources.FDA.File = writeFixture(t, src, "FoodSubstances.csv", fdaCSV)
	cfg.Sources.GRAS.File = writeFixture(t, src, "GRASNotices.csv", grasCSV)
	cfg.Sources.GRAS.NoticeFallback = true
	cfg.Sources.WHO.File = writeFixture(t, src, "who.csv", whoCSV)

	cdc := socrataServer(t)
	t.Cleanup(cdc.Close)
	cfg.Sources.CDC.URL = cdc.URL + "/resource/hn4x-zwk7.json"
	cfg.Sources.CDC.RateLimitMs = 0

	fsis := fsisServer(t)
	t.Cleanup(fsis.Close)
	cfg.Sources.FSIS.URL = fsis.URL + "/fsis/api/recall/v/1"
	cfg.Sources.FSIS.RateLimitMs = 0

	require.NoError(t, cfg.Validate())

	return cfg
}

func TestRunner_RunFDA(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, logger.Discard())

	res, err := runner.Run(context.Background(), config.DatasetFDA)
	require.NoError(t, err)

	assert.Equal(t, config.DatasetFDA, res.Dataset)
	assert.Equal(t, 3, res.Stats.Total)
	assert.Equal(t, 2, res.Stats.Valid[FieldCASRegNo])
	assert.Equal(t, 2, res.Stats.Valid[FieldApprovalYear])
	require.Len(t, res.Files, 2)

	table, err := dataset.ReadTable(res.Files[0], "fda")
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"1995", "1999", ""}, table.Column("approval_year"))
	assert.Equal(t, []string{"64-19-7", "7732-18-5", ""}, table.Column("cas_reg_no"))
	assert.Equal(t, []string{"FLAVOR|PRESERVATIVE", "", "COLOR"}, table.Column("technical_effects"))
	assert.Equal(t, runner.RunInfo().ID, table.Column("run_id")[0])

	summary, err := dataset.ReadTable(res.Files[1], "summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"1995", "1999"}, summary.Column("year"))
	assert.Equal(t, []string{"1", "2"}, summary.Column("cumulative_approvals"))
	assert.Equal(t, filepath.Join(cfg.Output.BasePath, config.ApprovalsByYearFile), res.Files[1])
}

func TestRunner_RunGRAS(t *testing.T) {
	runner := NewRunner(testConfig(t), logger.Discard())

	res, err := runner.Run(context.Background(), config.DatasetGRAS)
	require.NoError(t, err)

	table, err := dataset.ReadTable(res.Files[0], "gras")
	require.NoError(t, err)

	assert.Equal(t, []string{"30", "40"}, table.Column("grn_no"))
	assert.Equal(t, []string{"2001-03-15", ""}, table.Column("date_of_filing"))
	assert.Equal(t, []string{"2001", "1996"}, table.Column("filing_year"))
	assert.Equal(t, []string{"no questions", "unknown"}, table.Column("fda_response"))
	assert.Equal(t, 1, res.Stats.Sources[FilingFromNotice])
}

func TestRunner_RunWHO_SkipsMalformedRows(t *testing.T) {
	runner := NewRunner(testConfig(t), logger.Discard())

	res, err := runner.Run(context.Background(), config.DatasetWHO)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.Total)
	assert.Equal(t, 1, res.Stats.Skipped)
}

func TestRunner_RunCDC(t *testing.T) {
	runner := NewRunner(testConfig(t), logger.Discard())

	res, err := runner.Run(context.Background(), config.DatasetCDC)
	require.NoError(t, err)

	table, err := dataset.ReadTable(res.Files[0], "cdc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alabama", "AK"}, table.Column("location"))
	assert.Equal(t, []string{"2015", "2016"}, table.Column("year"))
}

func TestRunner_RunFSIS(t *testing.T) {
	runner := NewRunner(testConfig(t), logger.Discard())

	res, err := runner.Run(context.Background(), config.DatasetFSIS)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.Total)
	assert.Equal(t, 1, res.Stats.Filtered)

	table, err := dataset.ReadTable(res.Files[0], "fsis")
	require.NoError(t, err)
	assert.Equal(t, []string{"010-2023", "002-2022"}, table.Column("recall_number"))
	assert.Equal(t, []string{"Texas|Ohio", "Nationwide"}, table.Column("states"))
	assert.Equal(t, []string{"High - Class I", RiskUnknown}, table.Column("risk_level"))
	assert.Equal(t, []string{"", "2000"}, table.Column("quantity_lbs"))
}

func TestRunner_RunAll_WithSinks(t *testing.T) {
	cfg := testConfig(t)

	sink, err := dataset.OpenSQLite(filepath.Join(t.TempDir(), "etl.db"))
	require.NoError(t, err)

	defer sink.Close()

	m := metrics.New()
	runner := NewRunner(cfg, logger.Discard(), WithSQLite(sink), WithMetrics(m), WithRun(NewRun()))

	results, err := runner.RunAll(context.Background(), config.Datasets)
	require.NoError(t, err)
	require.Len(t, results, len(config.Datasets))

	for i, res := range results {
		assert.Equal(t, config.Datasets[i], res.Dataset)
	}

	n, err := sink.Count(context.Background(), "fda_substances")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	path := filepath.Join(t.TempDir(), "etl.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `healthetl_dataset_records{dataset="fsis"} 2`)
}

func TestRunner_RunAll_ReportsFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources.WHO.File = filepath.Join(t.TempDir(), "missing.csv")

	m := metrics.New()
	runner := NewRunner(cfg, logger.Discard(), WithMetrics(m))

	results, err := runner.RunAll(context.Background(), []string{config.DatasetWHO, config.DatasetGRAS})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "who job")
	require.Len(t, results, 1)
	assert.Equal(t, config.DatasetGRAS, results[0].Dataset)
}

func TestRunner_UnknownDataset(t *testing.T) {
	runner := NewRunner(testConfig(t), logger.Discard())

	_, err := runner.Run(context.Background(), "usda")
	require.ErrorIs(t, err, ErrUnknownDataset)
}
