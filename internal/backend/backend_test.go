package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mastercoin/internal/config"
	"mastercoin/internal/sheets/memory"
	"mastercoin/internal/sheets/xlsx"
)

func TestSourceType_IsValid(t *testing.T) {
	for _, st := range GetSourceTypes() {
		assert.True(t, st.IsValid(), st.String())
	}
	assert.False(t, SourceType("sqlite").IsValid())
	assert.Equal(t, []string{"xlsx", "sheets", "memory"}, GetSourceTypeStrings())
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{WorkbookSource: "csv"})
	assert.ErrorContains(t, err, "invalid workbook source in config: csv")

	cfg, err := FromAppConfig(&config.Config{
		WorkbookSource:           "sheets",
		WorkbookPath:             "book.xlsx",
		DataDirectory:            "data",
		GoogleSpreadsheetID:      "sheet-id",
		GoogleServiceAccountJSON: "{}",
	})
	require.NoError(t, err)
	assert.Equal(t, SheetsSource, cfg.Type)
	assert.Equal(t, "sheet-id", cfg.GoogleSpreadsheetID)
	assert.Equal(t, "{}", cfg.GoogleServiceAccountJSON)
	assert.Equal(t, "book.xlsx", cfg.WorkbookPath)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{name: "xlsx", config: Config{Type: XLSXSource, WorkbookPath: "a.xlsx"}},
		{name: "memory without directory", config: Config{Type: MemorySource}},
		{name: "unknown", config: Config{Type: "ftp"}, wantErr: "invalid source type: ftp"},
		{name: "xlsx without path", config: Config{Type: XLSXSource}, wantErr: "workbook path is required"},
		{name: "sheets without id", config: Config{Type: SheetsSource, GoogleServiceAccountJSON: "{}"}, wantErr: "Spreadsheet ID is required"},
		{name: "sheets without credentials", config: Config{Type: SheetsSource, GoogleSpreadsheetID: "x"}, wantErr: "must be provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFactory_CreateReader(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	r, err := f.CreateReader(ctx, Config{Type: XLSXSource, WorkbookPath: "book.xlsx"})
	require.NoError(t, err)
	assert.IsType(t, &xlsx.File{}, r)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01 2025.csv"), []byte("Section,Item Name,Used_Amount\nIncome,Salary,100\n"), 0o644))
	r, err = f.CreateReader(ctx, Config{Type: MemorySource, DataDirectory: dir})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, r)
	wb, err := r.ReadWorkbook(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"01 2025"}, wb.SheetNames())

	_, err = f.CreateReader(ctx, Config{Type: SheetsSource})
	assert.Error(t, err)
}
