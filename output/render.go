// Package output renders query results and scan diagnostics: aligned text
// tables, JSON rows and match-rate charts.
package output

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
)

// CollectRows drains a result set into column names and stringified cells.
// NULLs become empty strings.
func CollectRows(rows *sql.Rows) ([]string, [][]string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("reading result columns: %w", err)
	}
	data, err := collectRows(rows, len(cols))
	if err != nil {
		return nil, nil, err
	}
	return cols, data, nil
}

// RenderTable prints rows as an aligned text table. NULLs render as empty
// cells. Returns the number of data rows printed.
func RenderTable(w io.Writer, rows *sql.Rows) (int, error) {
	cols, data, err := CollectRows(rows)
	if err != nil {
		return 0, err
	}

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	for _, row := range data {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRule(w, widths)
	writeRow(w, cols, widths)
	writeRule(w, widths)
	for _, row := range data {
		writeRow(w, row, widths)
	}
	writeRule(w, widths)

	return len(data), nil
}

func collectRows(rows *sql.Rows, ncols int) ([][]string, error) {
	var out [][]string
	vals := make([]any, ncols)
	ptrs := make([]any, ncols)
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		row := make([]string, ncols)
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func writeRule(w io.Writer, widths []int) {
	var b strings.Builder
	b.WriteByte('+')
	for _, width := range widths {
		b.WriteString(strings.Repeat("-", width+2))
		b.WriteByte('+')
	}
	fmt.Fprintln(w, b.String())
}

func writeRow(w io.Writer, cells []string, widths []int) {
	var b strings.Builder
	b.WriteByte('|')
	for i, cell := range cells {
		fmt.Fprintf(&b, " %-*s |", widths[i], cell)
	}
	fmt.Fprintln(w, b.String())
}
