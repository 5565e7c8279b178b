package library

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportSample() []*Book {
	return []*Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Category: CategoryFiction},
		{ID: 2, Title: "Eats, Shoots & Leaves", Author: "Lynne Truss", Category: CategoryNonFiction},
		{ID: 3, Title: `The "Quoted" Title`, Author: "Anon", Category: CategoryOther},
		{ID: 4, Title: "Line one\nline two", Author: "Poet", Category: CategoryReligious},
	}
}

func TestToCSVGolden(t *testing.T) {
	out, err := ToCSV(exportSample())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "books_csv", out)
}

func TestCSVRoundTrip(t *testing.T) {
	books := exportSample()
	books = append(books, &Book{ID: 10, Title: " leading space", Author: "Ünïcödé", Category: CategoryAcademic})

	out, err := ToCSV(books)
	require.NoError(t, err)

	got, err := ParseCSV(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, books, got)
}

func TestToCSVEmpty(t *testing.T) {
	out, err := ToCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "ID,Title,Author,Category\n", string(out))

	got, err := ParseCSV(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseCSVRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "wrong header", input: "Id,Name,Writer,Kind\n1,a,b,c\n"},
		{name: "bad id", input: "ID,Title,Author,Category\nx,a,b,c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := ParseCSV(strings.NewReader("ID,Title,Author,Category\n1,a,b\n"))
	assert.Error(t, err, "short row")
}

func TestFormatLine(t *testing.T) {
	b := &Book{Title: "Dune", Author: "Frank Herbert", Category: CategoryFiction}
	assert.Equal(t, "Dune by Frank Herbert [Fiction]", FormatLine(b))
}

func TestToPDFListsEveryBookInOrder(t *testing.T) {
	books := []*Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Category: CategoryFiction},
		{ID: 2, Title: "Sapiens", Author: "Yuval Noah Harari", Category: CategoryNonFiction},
		{ID: 3, Title: "Confessions", Author: "Augustine", Category: CategoryReligious},
	}

	out, err := ToPDF(books)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "%EOF")
	assert.Equal(t, 1, bytes.Count(out, []byte("("+PDFTitle+")Tj")))

	pos := 0
	for _, b := range books {
		line := []byte("(" + FormatLine(b) + ")Tj")
		assert.Equal(t, 1, bytes.Count(out, line), "line %q", line)
		idx := bytes.Index(out[pos:], line)
		require.GreaterOrEqual(t, idx, 0, "line %q out of order", line)
		pos += idx + len(line)
	}
}

func TestToPDFBreaksPages(t *testing.T) {
	var books []*Book
	for i := 1; i <= 60; i++ {
		books = append(books, &Book{ID: int64(i), Title: fmt.Sprintf("Volume %02d", i), Author: "Serial", Category: CategoryOther})
	}

	out, err := ToPDF(books)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, bytes.Count(out, []byte("<</Type /Page\n")), 2)
	for _, b := range books {
		assert.Equal(t, 1, bytes.Count(out, []byte("("+FormatLine(b)+")Tj")))
	}
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CSVFileName)

	require.NoError(t, WriteExport(path, []byte("first")))
	require.NoError(t, WriteExport(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not remain")
	assert.Equal(t, CSVFileName, entries[0].Name())
}

func TestWriteExportFailureLeavesNothing(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		dir := t.TempDir()
		err := WriteExport(filepath.Join(dir, "missing", PDFFileName), []byte("x"))
		assert.ErrorIs(t, err, ErrExport)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("target is a directory", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, PDFFileName)
		require.NoError(t, os.Mkdir(target, 0o755))

		err := WriteExport(target, []byte("x"))
		assert.ErrorIs(t, err, ErrExport)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].IsDir())
	})
}

func TestToPDFRejectsTextOutsideFont(t *testing.T) {
	_, err := ToPDF([]*Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Category: CategoryFiction},
		{ID: 2, Title: "کتاب", Author: "سیدہ الماس", Category: CategoryOther},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExport)
	assert.Contains(t, err.Error(), "book 2")

	// Accented Latin is covered by cp1252.
	out, err := ToPDF([]*Book{{ID: 3, Title: "Les Misérables", Author: "Émile Zola", Category: CategoryFiction}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "Zola [Fiction])Tj")
}
