package render

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/go-pdf/fpdf"
	"github.com/ruudk/golang-pdf417"

	"github.com/sfxrentals/dossier/preview"
)

// coverPage renders the dossier cover: title banner, project summary,
// customer logo, and the machine-readable reference codes.
func (g *Generator) coverPage(ctx context.Context, pdf *fpdf.Fpdf, pv preview.Preview, ref string) {
	pdf.AddPage()
	drawBanner(pdf, "Veiligheidsdossier")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.Text(MarginLeft, BannerHeight+64, preview.Safe(pv.AVM.Name, "Naamloos project"))

	pdf.SetFont("Helvetica", "", 11)
	y := BannerHeight + 96.0
	line := func(s string) {
		if s == "" {
			return
		}
		pdf.Text(MarginLeft, y, s)
		y += 16
	}
	line(pv.AVM.Customer.Name)
	line(pv.AVM.Location.Name)
	line(pv.AVM.Location.Address)
	if start := preview.FormatDate(pv.AVM.Start()); start != "" {
		period := start
		if end := preview.FormatDate(pv.AVM.End()); end != "" && end != start {
			period += " t/m " + end
		}
		line("Periode: " + period)
	}

	if logo := g.fetcher.FetchImage(ctx, pv.Documents.Logo, 600); logo != nil {
		embedPNG(pdf, "cover-logo", logo, PageWidth-MarginRight-120, BannerHeight+16, 120, 0)
	}

	g.referenceCodes(pdf, ref)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.Text(MarginLeft, PageHeight-MarginBottom+12,
		"Gegenereerd: "+g.now().Format("02/01/2006 15:04"))
	pdf.SetTextColor(0, 0, 0)
}

// referenceCodes draws the verification QR code and the PDF417 reference
// strip in the bottom-right corner. Either code is skipped when it cannot
// be encoded; the cover stays valid without them.
func (g *Generator) referenceCodes(pdf *fpdf.Fpdf, ref string) {
	x := PageWidth - MarginRight - 80

	if g.verifyURL != "" {
		if code, err := qr.Encode(g.verifyURL+"/"+ref, qr.M, qr.Unicode); err == nil {
			if data := barcodePNG(code, 320, 320); data != nil {
				embedPNG(pdf, "cover-qr", data, x, PageHeight-MarginBottom-140, 80, 80)
			}
		} else {
			g.log.Debug("qr encode failed", "err", err)
		}
	}

	strip := pdf417.Encode(ref, 4, 2)
	if data := barcodePNG(strip, 480, 120); data != nil {
		embedPNG(pdf, "cover-ref", data, PageWidth-MarginRight-160, PageHeight-MarginBottom-48, 160, 40)
	}

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(90, 90, 90)
	pdf.Text(x-80, PageHeight-MarginBottom+4, "Referentie: "+ref)
	pdf.SetTextColor(0, 0, 0)
}

// barcodePNG upscales a barcode to crisp module boundaries and encodes it
// as PNG. Falls back to the native resolution when the target is too small.
func barcodePNG(code barcode.Barcode, w, h int) []byte {
	scaled, err := barcode.Scale(code, w, h)
	if err != nil {
		scaled = code
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil
	}
	return buf.Bytes()
}

// embedPNG registers PNG data under a unique name and places it on the
// current page. A zero width or height keeps the image aspect ratio.
func embedPNG(pdf *fpdf.Fpdf, name string, data []byte, x, y, w, h float64) {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	key := fmt.Sprintf("%s-%d", name, pdf.PageNo())
	pdf.RegisterImageOptionsReader(key, opts, bytes.NewReader(data))
	pdf.ImageOptions(key, x, y, w, h, false, opts, 0, "")
}
