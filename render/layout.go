package render

import (
	"github.com/go-pdf/fpdf"
)

// Page geometry in PDF points, A4 portrait.
const (
	PageWidth  = 595.28
	PageHeight = 841.89

	MarginLeft   = 22.0
	MarginRight  = 22.0
	MarginBottom = 34.0

	// BannerHeight is the red title band across the top of every page.
	BannerHeight = 48.0

	// ContentTop is where body content starts, measured from the top edge.
	ContentTop = BannerHeight + 26.0
)

// ContentWidth is the usable width between the side margins.
const ContentWidth = PageWidth - MarginLeft - MarginRight

// ContentHeight is the usable height between banner and bottom margin.
const ContentHeight = PageHeight - ContentTop - MarginBottom

var (
	bannerRed  = [3]int{176, 0, 0}
	gridGray   = [3]int{187, 187, 187}
	headerTint = [3]int{241, 227, 227}
)

// drawBanner paints the red title band with its white caption on the
// current page and leaves the cursor at the content start position.
func drawBanner(pdf *fpdf.Fpdf, title string) {
	pdf.SetFillColor(bannerRed[0], bannerRed[1], bannerRed[2])
	pdf.Rect(0, 0, PageWidth, BannerHeight, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(MarginLeft, BannerHeight-16, title)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(MarginLeft, ContentTop)
}

// drawMarker writes the invisible section marker in the bottom-left page
// corner. White one-point text keeps it out of sight while the text
// extractor can still locate it.
func drawMarker(pdf *fpdf.Fpdf, key string) {
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "", 1)
	pdf.Text(2, PageHeight-2, "[SEC::"+key+"]")
	pdf.SetTextColor(0, 0, 0)
}

func newPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	// Page breaks are driven explicitly; the bottom margin still bounds
	// table layout.
	pdf.SetAutoPageBreak(false, MarginBottom)
	pdf.SetMargins(MarginLeft, ContentTop, MarginRight)
	return pdf
}
