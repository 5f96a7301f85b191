// Package models defines the raw and cleaned record types moved between the
// fetch, processing and output stages.
package models

import (
	"strconv"
	"strings"
	"time"
)

// ListSeparator joins list-valued cells.
const ListSeparator = "|"

// RawRecord is one source row keyed by column name. An absent key and a blank
// value both mean the value is missing.
type RawRecord map[string]string

// Get returns the trimmed value for key.
func (r RawRecord) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// First returns the first non-blank value among keys.
func (r RawRecord) First(keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v != "" {
			return v
		}
	}

	return ""
}

// Has reports whether the record carries a column named key.
func (r RawRecord) Has(key string) bool {
	_, ok := r[key]

	return ok
}

// Number is an optional numeric cell.
type Number struct {
	Value float64
	Valid bool
}

// ParseNumber reads a decimal value, treating blanks and garbage as missing.
func ParseNumber(text string) Number {
	text = strings.TrimSpace(text)
	if text == "" {
		return Number{}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Number{}
	}

	return Number{Value: v, Valid: true}
}

func (n Number) String() string {
	if !n.Valid {
		return ""
	}

	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// Flag is an optional boolean cell.
type Flag struct {
	Value bool
	Valid bool
}

// ParseFlag accepts the literal spellings True and False in any case.
func ParseFlag(text string) Flag {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true":
		return Flag{Value: true, Valid: true}
	case "false":
		return Flag{Valid: true}
	}

	return Flag{}
}

func (f Flag) String() string {
	if !f.Valid {
		return ""
	}

	return strconv.FormatBool(f.Value)
}

// FormatInt renders n, leaving zero blank.
func FormatInt(n int) string {
	if n == 0 {
		return ""
	}

	return strconv.Itoa(n)
}

// FormatYear renders a year; unknown years (zero) are blank.
func FormatYear(year int) string {
	return FormatInt(year)
}

// FormatDate renders t as an ISO date, leaving the zero time blank.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("2006-01-02")
}

// JoinList renders a list-valued cell.
func JoinList(items []string) string {
	return strings.Join(items, ListSeparator)
}

// SplitList is the inverse of JoinList.
func SplitList(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}

	parts := strings.Split(cell, ListSeparator)
	out := parts[:0]

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// Provenance is stamped on every cleaned record.
type Provenance struct {
	ProcessedAt time.Time
	DataSource  string
	RunID       string
}

// ProvenanceColumns are appended to every processed file.
var ProvenanceColumns = []string{"data_source", "processed_timestamp", "run_id"}

func (p Provenance) values() []string {
	ts := ""
	if !p.ProcessedAt.IsZero() {
		ts = p.ProcessedAt.Format(time.RFC3339)
	}

	return []string{p.DataSource, ts, p.RunID}
}
