package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()

	m.ObserveDataset(DatasetCounts{
		Dataset:    "fda",
		Total:      3,
		Skipped:    1,
		Valid:      map[string]int{"cas_reg_no": 2},
		Categories: map[string]int{"FLAVOR": 2},
	})
	m.ObserveJob("fda", time.Now())
	m.IncrementFailure("cdc")

	path := filepath.Join(t.TempDir(), "textfile", "healthetl.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `healthetl_dataset_records{dataset="fda"} 3`)
	assert.Contains(t, out, `healthetl_dataset_skipped_rows{dataset="fda"} 1`)
	assert.Contains(t, out, `healthetl_field_valid_records{dataset="fda",field="cas_reg_no"} 2`)
	assert.Contains(t, out, `healthetl_category_records{dataset="fda",label="FLAVOR"} 2`)
	assert.Contains(t, out, `healthetl_job_failures_total{dataset="cdc"} 1`)
	assert.Contains(t, out, `healthetl_job_duration_seconds_count{dataset="fda"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.IncrementFailure("who")

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}
