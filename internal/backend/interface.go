package backend

import (
	"context"

	"mastercoin/internal/sheets"
)

// Factory creates workbook readers based on configuration
type Factory interface {
	// CreateReader creates a reader for the configured workbook source
	CreateReader(ctx context.Context, config Config) (sheets.WorkbookReader, error)
}

// Config holds configuration for reader creation
type Config struct {
	// Source type
	Type SourceType

	// xlsx specific
	WorkbookPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory source specific
	DataDirectory string
}

// SourceType represents where the workbook comes from
type SourceType string

const (
	XLSXSource   SourceType = "xlsx"
	SheetsSource SourceType = "sheets"
	MemorySource SourceType = "memory"
)

// String implements fmt.Stringer
func (st SourceType) String() string {
	return string(st)
}

// IsValid returns true if the source type is valid
func (st SourceType) IsValid() bool {
	switch st {
	case XLSXSource, SheetsSource, MemorySource:
		return true
	default:
		return false
	}
}
