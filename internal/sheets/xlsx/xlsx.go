// Package xlsx decodes Excel workbooks into sheets.Workbook values.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"mastercoin/internal/log"
	ports "mastercoin/internal/sheets"
)

// Ensure interface conformance
var _ ports.WorkbookReader = (*File)(nil)

// File reads a workbook from a path on disk.
type File struct {
	path   string
	logger *log.Logger
}

func NewFile(path string, logger *log.Logger) *File {
	return &File{path: path, logger: orDiscard(logger)}
}

// ReadWorkbook implements ports.WorkbookReader.
func (f *File) ReadWorkbook(ctx context.Context) (ports.Workbook, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return ports.Workbook{}, fmt.Errorf("open workbook %s: %w", f.path, err)
	}
	defer fh.Close()
	return Decode(ctx, fh, f.logger)
}

// Bytes reads a workbook from an in-memory payload, e.g. an upload body.
type Bytes struct {
	data   []byte
	logger *log.Logger
}

func NewBytes(data []byte, logger *log.Logger) *Bytes {
	return &Bytes{data: data, logger: orDiscard(logger)}
}

// ReadWorkbook implements ports.WorkbookReader.
func (b *Bytes) ReadWorkbook(ctx context.Context) (ports.Workbook, error) {
	return Decode(ctx, bytes.NewReader(b.data), b.logger)
}

// Decode parses an xlsx stream. Cells are read raw (unformatted) so numeric
// cells keep their stored value rather than a display string like "1,200".
// A nil logger discards.
func Decode(ctx context.Context, r io.Reader, logger *log.Logger) (ports.Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ports.Workbook{}, fmt.Errorf("%w: %v", ports.ErrUnsupportedWorkbook, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return ports.Workbook{}, ports.ErrEmptyWorkbook
	}

	wb := ports.Workbook{Sheets: make([]ports.Sheet, 0, len(names))}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return ports.Workbook{}, err
		}
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return ports.Workbook{}, fmt.Errorf("read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, ports.Sheet{
			Name: name,
			Rows: ports.RowsFromValues(ports.StringMatrix(rows)),
		})
	}

	if logger == nil {
		logger = log.Discard()
	}
	logger.DebugContext(ctx, "Decoded xlsx workbook",
		log.FieldSheetCount, len(wb.Sheets),
		log.FieldRecordCount, wb.RowCount())
	return wb, nil
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.Discard()
	}
	return logger.WithComponent(log.ComponentWorkbook)
}
