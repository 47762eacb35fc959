package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "mastercoin/internal/sheets"
)

func TestStorePutAndRead(t *testing.T) {
	s := New(
		ports.Sheet{Name: "01 2025", Rows: []ports.Row{{"Item Name": "Salary"}}},
		ports.Sheet{Name: "02 2025"},
	)
	s.Put(ports.Sheet{Name: "01 2025", Rows: []ports.Row{{"Item Name": "Grocery"}}})

	wb, err := s.ReadWorkbook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"01 2025", "02 2025"}, wb.SheetNames())
	assert.Equal(t, "Grocery", wb.Sheets[0].Rows[0]["Item Name"])

	// The returned workbook is a copy.
	wb.Sheets[0].Rows[0]["Item Name"] = "changed"
	again, _ := s.ReadWorkbook(context.Background())
	assert.Equal(t, "Grocery", again.Sheets[0].Rows[0]["Item Name"])
}

func TestEmptyStore(t *testing.T) {
	_, err := New().ReadWorkbook(context.Background())
	assert.ErrorIs(t, err, ports.ErrEmptyWorkbook)
}

func TestNewFromDirLoadsCSVSheets(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("02 2025.csv", "Section,Item Name,Used_Amount\nIncome,Salary,1000\n")
	mustWrite("01 2025.csv", "Section,Item Name,,Used_Amount\nEssential !!,TIME,x,300\n,,,\n")
	mustWrite("notes.txt", "ignored")

	s, err := NewFromDir(dir)
	require.NoError(t, err)
	wb, err := s.ReadWorkbook(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"01 2025", "02 2025"}, wb.SheetNames())
	require.Len(t, wb.Sheets[0].Rows, 1)
	row := wb.Sheets[0].Rows[0]
	assert.Equal(t, "TIME", row["Item Name"])
	assert.Equal(t, "x", row["__EMPTY"])
	assert.Equal(t, "300", row["Used_Amount"])
}

func TestNewFromDirMissingDirectory(t *testing.T) {
	s, err := NewFromDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	_, err = s.ReadWorkbook(context.Background())
	assert.ErrorIs(t, err, ports.ErrEmptyWorkbook)
}
