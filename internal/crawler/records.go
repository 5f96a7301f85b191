package crawler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"healthetl/internal/models"
)

// DecodeRecords parses a JSON array of flat objects into raw records.
// Scalars are rendered as text; nested values are kept as compact JSON.
func DecodeRecords(body []byte) ([]models.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	records := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}

	return records, nil
}

func toRecord(row map[string]any) models.RawRecord {
	rec := make(models.RawRecord, len(row))

	for k, v := range row {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			rec[k] = val
		case json.Number:
			rec[k] = val.String()
		case bool:
			rec[k] = strconv.FormatBool(val)
		default:
			raw, err := json.Marshal(val)
			if err == nil {
				rec[k] = string(raw)
			}
		}
	}

	return rec
}
