package models

// Row is a cleaned record that can be rendered as one output line.
type Row interface {
	Values() []string
}

// Table is a rendered dataset: a header and rows of equal width.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// NewTable renders rows under columns.
func NewTable[R Row](name string, columns []string, rows []R) Table {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Values())
	}

	return Table{Name: name, Columns: columns, Rows: out}
}

// Index returns the position of column, or -1.
func (t Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}

	return -1
}

// Column returns every value of column, or nil when the table lacks it.
func (t Table) Column(column string) []string {
	i := t.Index(column)
	if i < 0 {
		return nil
	}

	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if i < len(row) {
			values = append(values, row[i])
		} else {
			values = append(values, "")
		}
	}

	return values
}

// Records converts the table back into raw records.
func (t Table) Records() []RawRecord {
	records := make([]RawRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		r := make(RawRecord, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(row) {
				r[c] = row[i]
			}
		}

		records = append(records, r)
	}

	return records
}
