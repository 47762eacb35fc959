package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ports "mastercoin/internal/sheets"
)

// Ensure interface conformance
var _ ports.WorkbookReader = (*Store)(nil)

// Store keeps a workbook in memory. It backs tests and the "memory" source,
// which loads one CSV file per sheet from a directory.
type Store struct {
	mu     sync.Mutex
	sheets []ports.Sheet
}

func New(sheets ...ports.Sheet) *Store {
	s := &Store{}
	for _, sh := range sheets {
		s.Put(sh)
	}
	return s
}

// NewFromDir loads every *.csv file of base as a sheet named after the file
// (without extension), in file-name order. A missing or empty directory
// yields an empty store.
func NewFromDir(base string) (*Store, error) {
	matches, err := filepath.Glob(filepath.Join(base, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list csv sheets: %w", err)
	}
	sort.Strings(matches)
	s := &Store{}
	for _, path := range matches {
		values, err := readCSV(path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		s.Put(ports.Sheet{Name: name, Rows: ports.RowsFromValues(ports.StringMatrix(values))})
	}
	return s, nil
}

// Put adds a sheet, replacing any sheet with the same name in place.
func (s *Store) Put(sheet ports.Sheet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sheets {
		if s.sheets[i].Name == sheet.Name {
			s.sheets[i] = sheet
			return
		}
	}
	s.sheets = append(s.sheets, sheet)
}

// ReadWorkbook returns a copy of the stored workbook.
func (s *Store) ReadWorkbook(_ context.Context) (ports.Workbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sheets) == 0 {
		return ports.Workbook{}, ports.ErrEmptyWorkbook
	}
	out := ports.Workbook{Sheets: make([]ports.Sheet, len(s.sheets))}
	for i, sh := range s.sheets {
		rows := make([]ports.Row, len(sh.Rows))
		for j, r := range sh.Rows {
			cp := make(ports.Row, len(r))
			for k, v := range r {
				cp[k] = v
			}
			rows[j] = cp
		}
		out.Sheets[i] = ports.Sheet{Name: sh.Name, Rows: rows}
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	values, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return values, nil
}
