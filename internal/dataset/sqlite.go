package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"healthetl/internal/models"
)

// numericColumns are stored with a numeric affinity; everything else is TEXT.
var numericColumns = map[string]string{
	"year": "INTEGER", "approval_year": "INTEGER", "filing_year": "INTEGER", "grn_no": "INTEGER",
	"new_approvals": "INTEGER", "cumulative_approvals": "INTEGER",
	"pct_change": "REAL", "data_value": "REAL", "low_confidence_limit": "REAL", "high_confidence_limit": "REAL",
	"obesity_rate": "REAL", "confidence_lower": "REAL", "confidence_upper": "REAL", "quantity_lbs": "REAL",
}

// SQLiteSink mirrors processed tables into one SQLite database, one table
// per dataset.
type SQLiteSink struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// A single connection serializes writers from concurrent jobs.
	db.SetMaxOpenConns(1)

	return &SQLiteSink{db: db}, nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// TableName derives a SQL table name from a dataset table.
func TableName(t models.Table) string {
	name := strings.TrimSuffix(filepath.Base(t.Name), filepath.Ext(t.Name))

	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}

		return '_'
	}, name)
}

// WriteTable replaces the SQL table for t with its rows.
func (s *SQLiteSink) WriteTable(ctx context.Context, t models.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := TableName(t)

	defs := make([]string, 0, len(t.Columns))
	quoted := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		typ := numericColumns[c]
		if typ == "" {
			typ = "TEXT"
		}

		defs = append(defs, fmt.Sprintf("%q %s", c, typ))
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, table, strings.Join(defs, ","))); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(t.Columns)), ",")

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, table, strings.Join(quoted, ","), ph))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range t.Rows {
		args := make([]any, len(t.Columns))
		for i, c := range t.Columns {
			v := ""
			if i < len(row) {
				v = row[i]
			}

			args[i] = sqliteValue(numericColumns[c], v)
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of rows stored for a table name.
func (s *SQLiteSink) Count(ctx context.Context, table string) (int, error) {
	var n int

	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)).Scan(&n)

	return n, err
}

func sqliteValue(typ, v string) any {
	if v == "" {
		return nil
	}

	switch typ {
	case "INTEGER":
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case "REAL":
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}

	return v
}
