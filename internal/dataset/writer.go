package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"healthetl/internal/models"
)

// Writer saves processed tables as CSV files under a base directory.
type Writer struct {
	basePath     string
	createBackup bool
}

// NewWriter creates a CSV writer. With createBackup set, an existing file is
// renamed to <name>.bak before it is replaced.
func NewWriter(basePath string, createBackup bool) *Writer {
	return &Writer{basePath: basePath, createBackup: createBackup}
}

// Path returns where a file name is written.
func (w *Writer) Path(file string) string {
	return filepath.Join(w.basePath, file)
}

// WriteTable writes t to file and returns the full path.
func (w *Writer) WriteTable(t models.Table, file string) (string, error) {
	outputPath := w.Path(file)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("could not create output directory: %w", err)
	}

	if w.createBackup {
		if _, statErr := os.Stat(outputPath); statErr == nil {
			if err := os.Rename(outputPath, outputPath+".bak"); err != nil {
				return "", fmt.Errorf("could not create backup: %w", err)
			}
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Columns); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	if err := cw.WriteAll(t.Rows); err != nil {
		return "", fmt.Errorf("failed to write rows: %w", err)
	}

	return outputPath, f.Close()
}

// ReadTable loads a processed CSV back into a table.
func ReadTable(path, name string) (models.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	res, err := ReadCSV(data, ReadOptions{Encodings: []string{"utf-8"}})
	if err != nil {
		return models.Table{}, fmt.Errorf("%s: %w", path, err)
	}

	t := models.Table{Name: name, Columns: res.Header}
	for _, rec := range res.Records {
		row := make([]string, len(res.Header))
		for i, c := range res.Header {
			row[i] = rec[c]
		}

		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
