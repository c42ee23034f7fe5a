// Package splice merges externally supplied PDF documents into a base
// dossier. The output is rebuilt front to back: every base page is imported
// as a template, and on pages that open a section with external content the
// first external page is scaled underneath the banner, with the remaining
// pages appended at their native size.
//
// External documents are best-effort. A blob that fails to parse or has no
// pages is skipped and the section keeps its banner-only page.
package splice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"

	"github.com/sfxrentals/dossier/fetch"
	"github.com/sfxrentals/dossier/preview"
	"github.com/sfxrentals/dossier/reader"
	"github.com/sfxrentals/dossier/render"
)

// FetchAll retrieves all external documents referenced by the payload,
// grouped by section key in payload order. Unreachable or empty references
// are dropped from the result.
func FetchAll(ctx context.Context, f *fetch.Fetcher, pv preview.Preview) map[string][][]byte {
	out := make(map[string][][]byte)
	for key, refs := range render.ExternalRefs(pv) {
		for _, ext := range refs {
			if data := f.Fetch(ctx, ext.Ref); data != nil {
				out[key] = append(out[key], data)
			}
		}
	}
	return out
}

// FitScale returns the uniform scale factor that fits a source page of
// srcW x srcH into availW x availH without upscaling.
func FitScale(srcW, srcH, availW, availH float64) float64 {
	if srcW <= 0 || srcH <= 0 {
		return 1
	}
	scale := availW / srcW
	if s := availH / srcH; s < scale {
		scale = s
	}
	if scale > 1 {
		return 1
	}
	return scale
}

// Splice rebuilds the base document with the external blobs merged in.
// Section pages without blobs are copied through unchanged.
func Splice(base *render.Base, blobs map[string][][]byte) ([]byte, error) {
	baseDoc, err := reader.Parse(base.PDF)
	if err != nil {
		return nil, fmt.Errorf("splice: parsing base document: %w", err)
	}

	sectionAt := make(map[int]string, len(base.Pages))
	for key, page := range base.Pages {
		sectionAt[page] = key
	}

	out := fpdf.New("P", "pt", "A4", "")
	out.SetAutoPageBreak(false, 0)

	imp := gofpdi.NewImporter()
	baseRS := io.ReadSeeker(bytes.NewReader(base.PDF))

	for i := 0; i < baseDoc.NumPages(); i++ {
		w, h := pageSize(baseDoc, i+1)
		tpl := imp.ImportPageFromStream(out, &baseRS, i+1, "/MediaBox")
		out.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		imp.UseImportedTemplate(out, tpl, 0, 0, w, h)

		key, ok := sectionAt[i]
		if !ok {
			continue
		}
		for j, blob := range blobs[key] {
			spliceBlob(out, blob, key, j == 0, h)
		}
	}

	var buf bytes.Buffer
	if err := out.Output(&buf); err != nil {
		return nil, fmt.Errorf("splice: writing merged document: %w", err)
	}
	return buf.Bytes(), nil
}

// spliceBlob merges one external document into the output. When overlay is
// set its first page is scaled into the content area of the current page;
// otherwise all pages are appended at native size.
func spliceBlob(out *fpdf.Fpdf, blob []byte, key string, overlay bool, pageH float64) {
	doc, err := reader.Parse(blob)
	if err != nil {
		slog.Debug("skipping external document", "section", key, "err", err)
		return
	}
	if doc.NumPages() == 0 {
		return
	}

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(blob))

	start := 1
	if overlay {
		sw, sh := pageSize(doc, 1)
		scale := FitScale(sw, sh, render.ContentWidth, render.ContentHeight)
		tpl := imp.ImportPageFromStream(out, &rs, 1, "/MediaBox")
		y := pageH - render.MarginBottom - sh*scale
		imp.UseImportedTemplate(out, tpl, render.MarginLeft, y, sw*scale, sh*scale)
		start = 2
	}

	for p := start; p <= doc.NumPages(); p++ {
		sw, sh := pageSize(doc, p)
		tpl := imp.ImportPageFromStream(out, &rs, p, "/MediaBox")
		out.AddPageFormat("P", fpdf.SizeType{Wd: sw, Ht: sh})
		imp.UseImportedTemplate(out, tpl, 0, 0, sw, sh)
	}
}

// pageSize returns the MediaBox dimensions of page n, defaulting to A4
// when the box is missing or degenerate.
func pageSize(doc *reader.Document, n int) (float64, float64) {
	page, err := doc.Page(n)
	if err != nil {
		return render.PageWidth, render.PageHeight
	}
	w, h := page.MediaBox.Width(), page.MediaBox.Height()
	if w <= 0 || h <= 0 {
		return render.PageWidth, render.PageHeight
	}
	return w, h
}
