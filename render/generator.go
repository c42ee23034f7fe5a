package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/sfxrentals/dossier/fetch"
	"github.com/sfxrentals/dossier/preview"
)

// Base is the assembled base dossier, before external documents are
// spliced in.
type Base struct {
	// PDF is the rendered document.
	PDF []byte

	// Pages maps each section key to the zero-based index of its banner
	// page, recorded while the document was generated.
	Pages map[string]int

	// Sections is the ordered chapter list the document was built from.
	Sections []Section

	// Reference is the dossier reference printed on the cover.
	Reference string
}

// Generator builds base dossiers. A Generator is safe for concurrent use.
type Generator struct {
	fetcher   *fetch.Fetcher
	verifyURL string
	now       func() time.Time
	log       *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithFetcher sets the fetcher used for cover logo and crew bio images.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(g *Generator) { g.fetcher = f }
}

// WithVerifyBaseURL sets the base URL encoded in the cover QR code. The
// dossier reference is appended as the final path element. Empty disables
// the QR code.
func WithVerifyBaseURL(u string) Option {
	return func(g *Generator) { g.verifyURL = strings.TrimRight(u, "/") }
}

// WithClock overrides the time source for the cover timestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLogger sets the logger for degraded-content notices.
func WithLogger(log *slog.Logger) Option {
	return func(g *Generator) { g.log = log }
}

// NewGenerator creates a Generator with a default fetcher and clock.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		fetcher: fetch.New(),
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BuildBase renders the cover, table of contents and all section pages for
// the payload and returns the document together with its section page
// table. Content that cannot be produced (an unreachable logo, a broken
// bio image) is dropped; only a PDF writer failure returns an error.
func (g *Generator) BuildBase(ctx context.Context, pv preview.Preview) (*Base, error) {
	sections := Sections(pv)
	ref := uuid.NewString()

	pdf := newPDF()
	g.coverPage(ctx, pdf, pv, ref)
	tocPages(pdf, sections)

	pages := make(map[string]int, len(sections))
	for _, sec := range sections {
		pdf.AddPage()
		pages[sec.Key] = pdf.PageNo() - 1
		drawBanner(pdf, sec.Label())
		drawMarker(pdf, sec.Key)
		g.sectionContent(ctx, pdf, pv, sec)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: writing base document: %w", err)
	}
	return &Base{
		PDF:       buf.Bytes(),
		Pages:     pages,
		Sections:  sections,
		Reference: ref,
	}, nil
}

// sectionContent renders the in-process body of a section. Sections backed
// purely by external documents keep an empty body here.
func (g *Generator) sectionContent(ctx context.Context, pdf *fpdf.Fpdf, pv preview.Preview, sec Section) {
	switch sec.Key {
	case KeyProject:
		projectTable(pdf, pv)
	case KeyResponsible:
		g.responsibleContent(ctx, pdf, pv)
	case KeyMaterials:
		materialsContent(pdf, pv, sec)
	}
}

// tocPages renders the table of contents, spilling onto continuation pages
// when the chapter list outgrows one page.
func tocPages(pdf *fpdf.Fpdf, sections []Section) {
	const lineH = 22.0

	pdf.AddPage()
	drawBanner(pdf, "Inhoudstafel")
	y := ContentTop + 8

	pdf.SetFont("Helvetica", "", 12)
	for _, sec := range sections {
		if y > PageHeight-MarginBottom-lineH {
			pdf.AddPage()
			drawBanner(pdf, "Inhoudstafel")
			y = ContentTop + 8
			pdf.SetFont("Helvetica", "", 12)
		}
		pdf.Text(MarginLeft+6, y+12, sec.Label())
		y += lineH
	}
}
