package reader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

const chaseCSV = `Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
DEBIT,01/03/2025,"GITHUB *PRO SUBSCRIPTION",-4.00,ACH_DEBIT,1996.00,
DEBIT,01/05/2025,"WHOLE FOODS MARKET #123",-84.12,DEBIT_CARD,1911.88,

CREDIT,01/10/2025,"ACME CONSULTING INVOICE 1042",3500.00,ACH_CREDIT,5411.88,
`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestParseCSV(t *testing.T) {
	content, err := ParseCSV(strings.NewReader(chaseCSV))
	require.NoError(t, err)

	require.Equal(t, 1, content.PageCount)
	require.Len(t, content.Pages, 1)
	page := content.Pages[0]
	require.Len(t, page.Tables, 1)

	table := page.Tables[0]
	assert.Len(t, table, 4, "blank line dropped")
	assert.Equal(t, "Posting Date", table[0][1])
	assert.Equal(t, "GITHUB *PRO SUBSCRIPTION", table[1][2])
	assert.Equal(t, "3500.00", table[3][3])
	assert.Contains(t, page.Text, "WHOLE FOODS MARKET #123")
}

func TestParseCSV_Empty(t *testing.T) {
	content, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, content.Pages[0].Tables)
}

func TestCSVReader_MissingFile(t *testing.T) {
	_, err := (&CSVReader{}).Read(context.Background(), model.Document{ID: "gone.csv", Path: "/nonexistent/gone.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrExtraction)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseText_FormFeedPages(t *testing.T) {
	content := ParseText("01/02/2025 COFFEE 4.50\r\n\f01/03/2025 RENT 1,800.00\n")
	require.Equal(t, 2, content.PageCount)
	assert.Equal(t, 1, content.Pages[0].Number)
	assert.Equal(t, "01/02/2025 COFFEE 4.50\n", content.Pages[0].Text)
	assert.Equal(t, 2, content.Pages[1].Number)
	assert.Empty(t, content.Pages[1].Tables)
}

func TestPDFReader_MissingFile(t *testing.T) {
	_, err := (&PDFReader{}).Read(context.Background(), model.Document{ID: "x.pdf", Path: "/nonexistent/x.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrExtraction)
}

func TestPDFReader_NotAPDF(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fake.pdf", "this is not a pdf")
	_, err := (&PDFReader{}).Read(context.Background(), model.Document{ID: "fake.pdf", Path: path})
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrExtraction)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&CSVReader{})
	assert.NotNil(t, r.Get("CSV"))
	assert.NotNil(t, r.Get(".csv"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&CSVReader{})
	assert.Panics(t, func() { r.Register(&CSVReader{}) })
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "pdf", "txt"}, DefaultRegistry().Formats())
}

func TestRegistry_ReadDispatches(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "jan.CSV", chaseCSV)

	content, err := DefaultRegistry().Read(context.Background(), model.Document{ID: "jan.CSV", Path: path})
	require.NoError(t, err)
	assert.Len(t, content.Pages[0].Tables, 1)

	_, err = DefaultRegistry().Read(context.Background(), model.Document{ID: "x.docx", Path: filepath.Join(dir, "x.docx")})
	assert.ErrorIs(t, err, faults.ErrExtraction)
}

func TestScan_FiltersByFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "data")
	writeFile(t, dir, "a.pdf", "data")
	writeFile(t, dir, "notes.docx", "data")
	writeFile(t, dir, ".hidden.csv", "data")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, processedDir), 0o755))
	writeFile(t, filepath.Join(dir, processedDir), "old.csv", "data")

	docs, err := DefaultRegistry().Scan(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.pdf", docs[0].ID)
	assert.Equal(t, filepath.Join(dir, "b.csv"), docs[1].Path)
}

func TestScan_MissingDir(t *testing.T) {
	docs, err := DefaultRegistry().Scan(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Nil(t, docs)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bank.csv", "data")

	require.NoError(t, MarkProcessed(dir, "bank.csv"))

	_, err := os.Stat(filepath.Join(dir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(filepath.Join(dir, processedDir, "bank.csv"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}
