// Package dataset reads raw CSV exports and writes processed tables.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"healthetl/internal/models"
)

// Reader errors.
var (
	ErrUnknownEncoding = errors.New("unknown encoding")
	ErrNoEncoding      = errors.New("failed to decode with any encoding")
	ErrNoHeader        = errors.New("csv has no header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DefaultEncodings is tried when a source lists none.
var DefaultEncodings = []string{"utf-8", "latin1", "cp1252"}

// ReadOptions controls how a raw export is parsed.
type ReadOptions struct {
	Encodings []string
	// SkipRows drops preamble lines before the header.
	SkipRows int
	// NormalizeHeaders trims, lower-cases and snake-cases column names.
	NormalizeHeaders bool
}

// ReadResult is a parsed export.
type ReadResult struct {
	Encoding string
	Header   []string
	Records  []models.RawRecord
	// Skipped counts malformed rows that were dropped.
	Skipped int
}

// NormalizeHeader trims a column name, lower-cases it and replaces spaces
// with underscores.
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))

	return strings.ReplaceAll(strings.ToLower(h), " ", "_")
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "utf-8", "utf8":
		return nil, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
}

// Decode converts data to UTF-8 using the first encoding that accepts it.
// UTF-8 only accepts valid input; the single-byte code pages accept anything.
func Decode(data []byte, encodings []string) ([]byte, string, error) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}

	for _, name := range encodings {
		enc, err := lookupEncoding(name)
		if err != nil {
			return nil, "", err
		}

		if enc == nil {
			if utf8.Valid(data) {
				return bytes.TrimPrefix(data, utf8BOM), name, nil
			}

			continue
		}

		decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
		if err != nil {
			continue
		}

		return decoded, name, nil
	}

	return nil, "", ErrNoEncoding
}

func skipLines(data []byte, n int) []byte {
	for ; n > 0 && len(data) > 0; n-- {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return nil
		}

		data = data[i+1:]
	}

	return data
}

// ReadCSV parses a raw CSV export into records keyed by header. Rows with
// more fields than the header, or that fail to parse, are skipped and
// counted; short rows leave the trailing columns missing.
func ReadCSV(data []byte, opts ReadOptions) (*ReadResult, error) {
	decoded, enc, err := Decode(data, opts.Encodings)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(skipLines(decoded, opts.SkipRows)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	for i, h := range header {
		if opts.NormalizeHeaders {
			header[i] = NormalizeHeader(h)
		} else {
			header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		}
	}

	res := &ReadResult{Encoding: enc, Header: header}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			res.Skipped++

			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		if len(rec) > len(header) {
			res.Skipped++

			continue
		}

		row := make(models.RawRecord, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}

		res.Records = append(res.Records, row)
	}

	return res, nil
}
