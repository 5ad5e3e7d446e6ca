package output

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lflog/lflog/scan"
)

// RenderJSON prints rows as a JSON array of column-keyed objects. compact
// disables indentation.
func RenderJSON(w io.Writer, rows *sql.Rows, compact bool) (int, error) {
	cols, data, err := CollectRows(rows)
	if err != nil {
		return 0, err
	}

	objs := make([]map[string]any, 0, len(data))
	for _, row := range data {
		obj := make(map[string]any, len(cols))
		for i, c := range cols {
			obj[c] = row[i]
		}
		objs = append(objs, obj)
	}

	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(objs); err != nil {
		return 0, fmt.Errorf("encoding JSON: %w", err)
	}
	return len(data), nil
}

// ScanSummary is the JSON shape of per-file match diagnostics.
type ScanSummary struct {
	Table     string           `json:"table"`
	Files     []scan.FileStats `json:"files"`
	Matched   int64            `json:"matched"`
	Unmatched int64            `json:"unmatched"`
}

// NewScanSummary totals per-file counters for one table.
func NewScanSummary(tableName string, files []scan.FileStats) ScanSummary {
	s := ScanSummary{Table: tableName, Files: files}
	for _, f := range files {
		s.Matched += f.Matched
		s.Unmatched += f.Unmatched
	}
	return s
}

// RenderStats prints a scan summary as indented JSON.
func RenderStats(w io.Writer, summary ScanSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
