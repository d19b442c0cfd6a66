package ingest

import (
	"errors"
	"strings"
)

// RawTable is a parsed spreadsheet: an ordered header row plus the data rows
// beneath it, all cells untyped strings. It is the sole input format the
// import engine accepts, regardless of source file type.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// ErrTooFewRows is returned when the file has no header row or no data rows.
// This is session-fatal: an import cannot proceed without both.
var ErrTooFewRows = errors.New("file must contain a header row and at least one data row")

// Cell returns the value at the given row and column, or "" when the row is
// shorter than the header row.
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	cells := t.Rows[row]
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col]
}

// buildTable assembles a RawTable from raw sheet rows: the first non-empty
// row becomes the header row, later non-empty rows become data rows, and
// fully-empty rows are dropped.
func buildTable(rows [][]string) (*RawTable, error) {
	table := &RawTable{}
	for _, row := range rows {
		if rowEmpty(row) {
			continue
		}
		if table.Headers == nil {
			table.Headers = trimRow(row)
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	if table.Headers == nil || len(table.Rows) == 0 {
		return nil, ErrTooFewRows
	}
	return table, nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}
