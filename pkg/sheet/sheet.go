// Package sheet models the shared tabular store the logbook writes to. A
// store holds named tables ("sheets"); each table is an ordered list of rows
// of string cells whose first row is the header.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrTableNotFound is returned when reading a table that was never created.
var ErrTableNotFound = errors.New("sheet: table not found")

// Store is the durable, append-only tabular store.
type Store interface {
	// EnsureHeader writes header as row 1 when the table is empty. An existing
	// header is left untouched.
	EnsureHeader(ctx context.Context, table string, header []string) error
	// AppendRows appends every row below the current last row in one atomic
	// operation: either all rows become visible or none do.
	AppendRows(ctx context.Context, table string, rows [][]string) error
	// Values returns every row of the table, header included.
	Values(ctx context.Context, table string) ([][]string, error)
	// Overwrite replaces all rows below the header with body.
	Overwrite(ctx context.Context, table string, body [][]string) error
	Close() error
}

// Records fetches a table and maps each body row by sanitized header name.
func Records(ctx context.Context, store Store, table string) ([]map[string]string, error) {
	values, err := store.Values(ctx, table)
	if err != nil {
		return nil, err
	}
	return ToRecords(values), nil
}

// ToRecords converts raw values (header first) into header-keyed maps. Cells
// missing from short rows default to the empty string.
func ToRecords(values [][]string) []map[string]string {
	if len(values) == 0 {
		return nil
	}
	header := SanitizeHeader(values[0])
	records := make([]map[string]string, 0, len(values)-1)
	for _, row := range values[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

// SanitizeHeader makes header names unique and non-empty. Blank names become
// column_<n> (1-based position) and repeated names get _2, _3... suffixes in
// order of appearance.
func SanitizeHeader(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			candidate := fmt.Sprintf("%s_%d", name, n)
			for seen[candidate] > 0 {
				n++
				candidate = fmt.Sprintf("%s_%d", name, n)
			}
			seen[candidate]++
			name = candidate
		}
		out[i] = name
	}
	return out
}

// Body returns the rows below the header.
func Body(values [][]string) [][]string {
	if len(values) <= 1 {
		return nil
	}
	return values[1:]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
