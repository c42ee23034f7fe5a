package docx

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"strings"
	"time"

	"github.com/sfxrentals/dossier/fetch"
	"github.com/sfxrentals/dossier/preview"
	"github.com/sfxrentals/dossier/render"
)

// attachmentMaxWidth bounds the rendered width of attachment page images,
// in pixels, to fit the printable page width.
const attachmentMaxWidth = 620

// PDFRasterizer renders the first page of a PDF attachment to PNG.
type PDFRasterizer interface {
	FirstPagePNG(pdfData []byte) ([]byte, int, int, error)
}

// Builder assembles dossiers as word processing documents. External PDF
// attachments are shown as a rendered first page; when rendering fails the
// attachment degrades to a hyperlink or a placeholder line.
type Builder struct {
	fetcher *fetch.Fetcher
	raster  PDFRasterizer
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithFetcher sets the fetcher for external documents and images.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(b *Builder) { b.fetcher = f }
}

// WithRasterizer overrides the PDF page renderer.
func WithRasterizer(r PDFRasterizer) Option {
	return func(b *Builder) { b.raster = r }
}

// WithClock overrides the time source for the generation stamp.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithLogger sets the logger for degraded-attachment notices.
func WithLogger(log *slog.Logger) Option {
	return func(b *Builder) { b.log = log }
}

// NewBuilder creates a Builder with a default fetcher and the MuPDF
// rasterizer.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		fetcher: fetch.New(),
		raster:  NewRasterizer(),
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the complete dossier for the payload and returns the
// packaged document.
func (b *Builder) Build(ctx context.Context, pv preview.Preview) ([]byte, error) {
	sections := render.Sections(pv)
	refs := render.ExternalRefs(pv)

	d := New("Veiligheidsdossier - " + preview.Safe(pv.AVM.Name, "Naamloos project"))
	d.Heading(1, "Veiligheidsdossier")
	d.Paragraph(preview.Safe(pv.AVM.Name, "Naamloos project"))
	d.Paragraph("Gegenereerd: " + b.now().Format("02/01/2006 15:04"))

	d.Heading(2, "Inhoudstafel")
	for _, sec := range sections {
		d.Paragraph(sec.Label())
	}

	for _, sec := range sections {
		d.Heading(1, sec.Label())
		b.sectionContent(ctx, d, pv, sec)
		for _, ext := range refs[sec.Key] {
			b.attachment(ctx, d, ext)
		}
	}
	return d.Bytes()
}

func (b *Builder) sectionContent(ctx context.Context, d *Document, pv preview.Preview, sec render.Section) {
	switch sec.Key {
	case render.KeyProject:
		d.KeyValueTable(render.ProjectRows(pv))
	case render.KeyResponsible:
		if pv.Responsible == "" {
			d.Paragraph("Geen verantwoordelijke geselecteerd.")
			return
		}
		d.LabeledParagraph("Projectverantwoordelijke:", pv.Responsible)
		if bio := b.fetcher.FetchImage(ctx, pv.Documents.CrewBioMini, 400); bio != nil {
			if w, h, ok := pngSize(bio); ok {
				d.Image(bio, w, h)
			}
		}
	case render.KeyMaterials:
		b.materials(d, pv, sec)
	}
}

// materials writes the two category subsections. Both headings always
// appear; an empty category carries the placeholder line instead of a table.
func (b *Builder) materials(d *Document, pv preview.Preview, sec render.Section) {
	withNEC := false
	for _, m := range pv.Materials.Dees {
		if m.NEC != "" {
			withNEC = true
			break
		}
	}

	d.Heading(2, fmt.Sprintf("%d.1 Pyrotechnische materialen", sec.Number))
	b.materialList(d, pv.Materials.Dees, withNEC)
	d.Heading(2, fmt.Sprintf("%d.2 Speciale effecten", sec.Number))
	b.materialList(d, pv.Materials.AVM, false)
}

func (b *Builder) materialList(d *Document, items []preview.Material, withNEC bool) {
	if len(items) == 0 {
		d.Paragraph("Geen items geselecteerd.")
		return
	}
	header, rows := render.MaterialTableData(items, withNEC)
	d.Table(header, rows)
}

// attachment embeds one external document: its rendered first page plus a
// source link when the reference is a URL. Unreachable or unrenderable
// documents fall back to the link or a placeholder line.
func (b *Builder) attachment(ctx context.Context, d *Document, ext render.External) {
	label := ext.Name
	if label == "" {
		label = "Bijlage"
	}
	isURL := strings.HasPrefix(ext.Ref, "http://") || strings.HasPrefix(ext.Ref, "https://")

	data := b.fetcher.Fetch(ctx, ext.Ref)
	if data == nil {
		if isURL {
			d.Hyperlink(label+" (extern document)", ext.Ref)
		} else {
			d.Paragraph(label + " (niet beschikbaar)")
		}
		return
	}

	img, w, h, err := b.raster.FirstPagePNG(data)
	if err != nil {
		b.log.Debug("attachment render failed", "err", err)
		if isURL {
			d.Hyperlink(label+" (extern document)", ext.Ref)
		} else {
			d.Paragraph(label + " (niet weer te geven)")
		}
		return
	}

	if w > attachmentMaxWidth {
		h = h * attachmentMaxWidth / w
		w = attachmentMaxWidth
	}
	d.Image(img, w, h)
	if isURL {
		d.Hyperlink("Volledig document", ext.Ref)
	}
}

// pngSize reads the pixel dimensions from a PNG header.
func pngSize(data []byte) (int, int, bool) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
