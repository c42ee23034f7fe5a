package reader_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/go-pdf/fpdf"

	"github.com/sfxrentals/dossier/reader"
)

// buildPDF generates an in-memory PDF with the given page texts.
func buildPDF(t *testing.T, pageTexts ...string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for _, text := range pageTexts {
		pdf.AddPage()
		pdf.Text(50, 70, text)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building test PDF: %v", err)
	}
	return buf.Bytes()
}

func TestParseGeneratedPDF(t *testing.T) {
	data := buildPDF(t, "eerste", "tweede", "derde")

	doc, err := reader.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.NumPages() != 3 {
		t.Errorf("pages = %d, want 3", doc.NumPages())
	}

	page, err := doc.Page(1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	// A4 in points.
	if w := page.MediaBox.Width(); w < 595 || w > 596 {
		t.Errorf("page width = %f, want ~595.28", w)
	}
	if h := page.MediaBox.Height(); h < 841 || h > 842 {
		t.Errorf("page height = %f, want ~841.89", h)
	}

	if _, err := doc.Page(4); err == nil {
		t.Error("page 4 should be out of range")
	}
}

func TestExtractText(t *testing.T) {
	data := buildPDF(t, "Projectgegevens overzicht")

	doc, err := reader.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	page, _ := doc.Page(1)
	text, err := page.ExtractText()
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !bytes.Contains([]byte(text), []byte("Projectgegevens")) {
		t.Errorf("extracted %q, want it to contain the drawn string", text)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := reader.Parse([]byte("not a pdf at all")); !errors.Is(err, reader.ErrNotPDF) {
		t.Errorf("err = %v, want ErrNotPDF", err)
	}
	if _, err := reader.Parse([]byte("%PDF-1.4\ntruncated")); !errors.Is(err, reader.ErrCorrupted) {
		t.Errorf("err = %v, want ErrCorrupted", err)
	}
	if _, err := reader.Parse(nil); !errors.Is(err, reader.ErrNotPDF) {
		t.Errorf("err = %v, want ErrNotPDF for empty input", err)
	}
}

func TestFindSectionMarkers(t *testing.T) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)

	pdf.AddPage()
	pdf.Text(50, 70, "Veiligheidsdossier")

	keys := []string{"project", "emergency", "materials"}
	for _, key := range keys {
		pdf.AddPage()
		pdf.Text(50, 70, "sectiepagina")
		pdf.SetFontSize(1)
		pdf.Text(2, 830, fmt.Sprintf("[SEC::%s]", key))
		pdf.SetFontSize(12)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building marker PDF: %v", err)
	}

	doc, err := reader.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	markers := reader.FindSectionMarkers(doc)
	if len(markers) != len(keys) {
		t.Fatalf("markers = %v, want %d entries", markers, len(keys))
	}
	for i, key := range keys {
		if markers[key] != i+1 {
			t.Errorf("marker %q on page %d, want %d", key, markers[key], i+1)
		}
	}
}
