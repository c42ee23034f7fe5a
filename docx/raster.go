package docx

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// renderDPI balances legibility of rendered attachment pages against
// document size.
const renderDPI = 120

// Rasterizer renders PDF pages to PNG through MuPDF.
type Rasterizer struct{}

// NewRasterizer returns a ready Rasterizer.
func NewRasterizer() *Rasterizer { return &Rasterizer{} }

// FirstPagePNG renders the first page of a PDF to PNG and returns the
// image bytes with its pixel dimensions.
func (r *Rasterizer) FirstPagePNG(pdfData []byte) ([]byte, int, int, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("docx: opening attachment: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, 0, 0, fmt.Errorf("docx: attachment has no pages")
	}
	img, err := doc.ImageDPI(0, renderDPI)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("docx: rendering attachment page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, 0, fmt.Errorf("docx: encoding attachment page: %w", err)
	}
	b := img.Bounds()
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}
