// internal/app/system/csvutil/inventory.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// ErrTooManyRows is returned when an upload exceeds ParseOptions.MaxRows.
var ErrTooManyRows = errors.New("csv has too many rows")

// InventoryRow is one normalized line of a stock-count upload:
// Name, SKU, Unit, Quantity, Reorder Level.
type InventoryRow struct {
	Line         int
	Name         string
	SKU          string
	Unit         string
	Quantity     int
	ReorderLevel int
}

// RowError describes why a line was rejected.
type RowError struct {
	Line   int      `json:"line"`
	Reason string   `json:"reason"`
	Raw    []string `json:"raw,omitempty"`
}

// ParseResult holds the accepted rows and the rejected lines of an upload.
type ParseResult struct {
	Rows   []InventoryRow
	Errors []RowError
}

// HasErrors reports whether any line was rejected.
func (r *ParseResult) HasErrors() bool { return len(r.Errors) > 0 }

// FormatErrors summarizes the first maxShow rejected lines.
func (r *ParseResult) FormatErrors(maxShow int) string {
	if len(r.Errors) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Upload rejected: %d row(s) are invalid.", len(r.Errors))
	n := min(maxShow, len(r.Errors))
	for _, e := range r.Errors[:n] {
		fmt.Fprintf(&b, " Line %d: %s.", e.Line, e.Reason)
	}
	if rest := len(r.Errors) - n; rest > 0 {
		fmt.Fprintf(&b, " ...and %d more.", rest)
	}
	return b.String()
}

// ParseOptions tunes ParseInventoryCSV.
type ParseOptions struct {
	MaxRows int // 0 means unlimited
}

// DefaultParseOptions returns options with no row limit.
func DefaultParseOptions() ParseOptions { return ParseOptions{} }

// ParseInventoryCSV reads a stock-count upload. A header row is skipped
// when its first cell is "name" or "item". Blank lines are ignored. Names
// are compared case- and accent-insensitively and must be unique within
// the file. It never writes to the database.
func ParseInventoryCSV(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	res := &ParseResult{}
	seen := map[string]int{}
	line := 0
	data := 0

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
			first := strings.ToLower(strings.TrimSpace(rec[0]))
			if first == "name" || first == "item" {
				continue
			}
		}
		if blank(rec) {
			continue
		}

		data++
		if opts.MaxRows > 0 && data > opts.MaxRows {
			return nil, ErrTooManyRows
		}

		row, reason := parseInventoryRecord(rec)
		row.Line = line
		if reason == "" {
			key := text.Fold(row.Name)
			if prev, dup := seen[key]; dup {
				reason = fmt.Sprintf("duplicate item name (first seen on line %d)", prev)
			} else {
				seen[key] = line
			}
		}
		if reason != "" {
			res.Errors = append(res.Errors, RowError{Line: line, Reason: reason, Raw: rec})
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func parseInventoryRecord(rec []string) (InventoryRow, string) {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	row := InventoryRow{
		Name: field(0),
		SKU:  field(1),
		Unit: field(2),
	}
	if row.Name == "" {
		return row, "missing item name"
	}

	qty, err := parseCount(field(3))
	if err != nil {
		return row, "quantity " + err.Error()
	}
	reorder, err := parseCount(field(4))
	if err != nil {
		return row, "reorder level " + err.Error()
	}
	row.Quantity = qty
	row.ReorderLevel = reorder
	return row, ""
}

func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("must be a whole number")
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return n, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
