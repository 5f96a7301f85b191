package report

import (
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"healthetl/internal/config"
	"healthetl/internal/dataset"
	"healthetl/internal/models"
)

// Dataset keys of the verification inputs.
const (
	KeyFDA       = "fda"
	KeyFDAYearly = "fda_yearly"
	KeyGRAS      = "gras"
	KeyCDC       = "cdc"
	KeyWHO       = "who"
	KeyRecalls   = "recalls"
)

// Inputs maps dataset keys to processed file names under the output path.
func Inputs(cfg *config.Config) map[string]string {
	return map[string]string{
		KeyFDA:       cfg.Sources.FDA.Output,
		KeyFDAYearly: config.ApprovalsByYearFile,
		KeyGRAS:      cfg.Sources.GRAS.Output,
		KeyCDC:       cfg.Sources.CDC.Output,
		KeyWHO:       cfg.Sources.WHO.Output,
		KeyRecalls:   cfg.Sources.FSIS.Output,
	}
}

// loadTables reads every input that exists. Missing files are reported by
// key and skipped.
func loadTables(basePath string, inputs map[string]string) (map[string]models.Table, []string, error) {
	tables := make(map[string]models.Table, len(inputs))

	var missing []string

	for _, key := range slices.Sorted(maps.Keys(inputs)) {
		t, err := dataset.ReadTable(filepath.Join(basePath, inputs[key]), key)
		if errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, key)

			continue
		}

		if err != nil {
			return nil, nil, err
		}

		tables[key] = t
	}

	return tables, missing, nil
}

// csvHeaders lists the header of every processed CSV in basePath.
func csvHeaders(basePath string) (map[string][]string, error) {
	entries, err := os.ReadDir(basePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	headers := make(map[string][]string)

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}

		t, err := dataset.ReadTable(filepath.Join(basePath, e.Name()), e.Name())
		if err != nil {
			return nil, err
		}

		headers[e.Name()] = t.Columns
	}

	return headers, nil
}
