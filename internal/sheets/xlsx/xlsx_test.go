package xlsx

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mastercoin/internal/log"
	ports "mastercoin/internal/sheets"
)

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Map & Details"))
	require.NoError(t, f.SetSheetRow("Map & Details", "A1", &[]any{"Item Name", "Description"}))

	_, err := f.NewSheet("01 2025")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("01 2025", "A2", &[]any{"Section", "Item Name", nil, "Used_Amount"}))
	require.NoError(t, f.SetSheetRow("01 2025", "A3", &[]any{"Income", "Salary", nil, 1200.5}))
	require.NoError(t, f.SetSheetRow("01 2025", "A4", &[]any{"Essential !!", "TIME", "x", 300}))

	// A display format must not leak into decoded values.
	style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("01 2025", "D3", "D4", style))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	wb, err := Decode(context.Background(), bytes.NewReader(buildWorkbook(t)), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Map & Details", "01 2025"}, wb.SheetNames())

	month := wb.Sheets[1]
	require.Len(t, month.Rows, 2)
	assert.Equal(t, "Salary", month.Rows[0]["Item Name"])
	assert.Equal(t, "1200.5", month.Rows[0]["Used_Amount"])
	assert.Equal(t, "", month.Rows[0]["__EMPTY"])
	assert.Equal(t, "x", month.Rows[1]["__EMPTY"])
	assert.Equal(t, "300", month.Rows[1]["Used_Amount"])
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(context.Background(), bytes.NewReader([]byte("not a zip")), nil)
	assert.ErrorIs(t, err, ports.ErrUnsupportedWorkbook)
}

func TestDecodeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Decode(ctx, bytes.NewReader(buildWorkbook(t)), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReaders(t *testing.T) {
	data := buildWorkbook(t)

	wb, err := NewBytes(data, nil).ReadWorkbook(context.Background())
	require.NoError(t, err)
	assert.Len(t, wb.Sheets, 2)

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	wb, err = NewFile(path, nil).ReadWorkbook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, wb.RowCount())

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.xlsx"), nil).ReadWorkbook(context.Background())
	assert.Error(t, err)
}

func TestReaderLogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewJSON(&buf, slog.LevelDebug, log.ComponentBackend)

	_, err := NewBytes(buildWorkbook(t), logger).ReadWorkbook(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Decoded xlsx workbook")
	assert.Contains(t, buf.String(), `"component":"workbook"`)
	assert.Contains(t, buf.String(), `"sheet_count":2`)
}
