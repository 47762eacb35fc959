package sheets

import (
	"context"
	"errors"
)

var (
	// ErrEmptyWorkbook is returned when a source decodes to zero sheets.
	ErrEmptyWorkbook = errors.New("workbook has no sheets")
	// ErrUnsupportedWorkbook is returned for payloads no decoder understands.
	ErrUnsupportedWorkbook = errors.New("unsupported workbook format")
)

type (
	// Row maps a column header to its cell value. Every header of the sheet is
	// present; empty cells hold "".
	Row map[string]any

	// Sheet is one named tab of a workbook, rows in source order.
	Sheet struct {
		Name string
		Rows []Row
	}

	// Workbook is the decoded spreadsheet, sheets in tab order.
	Workbook struct {
		Sheets []Sheet
	}
)

// Ports for inbound adapters.
type (
	// WorkbookReader decodes the whole workbook from its source.
	WorkbookReader interface {
		ReadWorkbook(ctx context.Context) (Workbook, error)
	}
)

// SheetNames returns the sheet names in tab order.
func (w Workbook) SheetNames() []string {
	out := make([]string, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		out = append(out, s.Name)
	}
	return out
}

// RowCount returns the number of data rows across all sheets.
func (w Workbook) RowCount() int {
	n := 0
	for _, s := range w.Sheets {
		n += len(s.Rows)
	}
	return n
}

// Value returns the cell and whether the column exists at all.
func (r Row) Value(column string) (any, bool) {
	v, ok := r[column]
	return v, ok
}
