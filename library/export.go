package library

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

// Export artifact names and their MIME types.
const (
	CSVFileName = "books.csv"
	CSVMIME     = "text/csv"
	PDFFileName = "books.pdf"
	PDFMIME     = "application/pdf"
)

// PDFTitle is the centered heading of the PDF export.
const PDFTitle = "Personal Library Book List"

var csvHeader = []string{"ID", "Title", "Author", "Category"}

// FormatLine renders a book the way lists and the PDF export show it.
func FormatLine(b *Book) string {
	return fmt.Sprintf("%s by %s [%s]", b.Title, b.Author, b.Category)
}

// ToCSV serializes books as a header row plus one row per book.
func ToCSV(books []*Book) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, b := range books {
		row := []string{strconv.FormatInt(b.ID, 10), b.Title, b.Author, b.Category}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseCSV reads books in the format ToCSV produces.
func ParseCSV(r io.Reader) ([]*Book, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty csv", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrInvalidInput, i+1, header[i], col)
		}
	}

	books := []*Book{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad id %q", ErrInvalidInput, rec[0])
		}
		books = append(books, &Book{ID: id, Title: rec[1], Author: rec[2], Category: rec[3]})
	}
	return books, nil
}

// ToPDF renders a centered title followed by one FormatLine per book, in
// order. The document is built in memory. The core fonts only cover cp1252;
// a book with text outside it fails with ErrExport.
func ToPDF(books []*Book) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Content streams stay uncompressed so each line is plain text in the file.
	pdf.SetCompression(false)
	pdf.SetTitle(PDFTitle, false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(200, 10, PDFTitle, "", 1, "C", false, 0, "")
	pdf.Ln(10)
	for _, b := range books {
		line, err := pdfText(tr, FormatLine(b))
		if err != nil {
			return nil, fmt.Errorf("book %d: %w", b.ID, err)
		}
		pdf.CellFormat(0, 10, line, "", 1, "", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfText translates s with tr. The translator turns unmapped runes into
// '.', so those are reported instead.
func pdfText(tr func(string) string, s string) (string, error) {
	for _, r := range s {
		if r >= utf8.RuneSelf && tr(string(r)) == "." {
			return "", fmt.Errorf("%w: %q has no PDF font glyph", ErrExport, r)
		}
	}
	return tr(s), nil
}

// WriteExport writes data to path through a temporary file in the same
// directory. On failure the temporary file is removed and the error wraps
// ErrExport, so path is either fully written or untouched.
func WriteExport(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrExport, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrExport, path, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrExport, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrExport, path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename to %s: %w", ErrExport, path, err)
	}
	return nil
}
