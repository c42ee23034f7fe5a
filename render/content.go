package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/sfxrentals/dossier/preview"
	"github.com/sfxrentals/dossier/table"
)

func dossierTableStyle() table.Style {
	return table.Style{
		CellFont:    table.Font{Family: "Helvetica", Size: 9},
		HeaderFont:  table.Font{Family: "Helvetica", Style: "B", Size: 9},
		HeaderFill:  table.RGB{R: headerTint[0], G: headerTint[1], B: headerTint[2]},
		HeaderText:  table.RGB{R: bannerRed[0], G: bannerRed[1], B: bannerRed[2]},
		GridColor:   table.RGB{R: gridGray[0], G: gridGray[1], B: gridGray[2]},
		GridWidth:   0.5,
		CellPadding: 4,
	}
}

// ProjectRows returns the label/value pairs of the project data section.
// The contact row appears only when at least one contact field is set.
func ProjectRows(pv preview.Preview) [][2]string {
	avm := pv.AVM
	rows := [][2]string{
		{"Projectnaam", preview.Safe(avm.Name, "-")},
		{"Klant", preview.Safe(avm.Customer.Name, "-")},
		{"Adres klant", preview.Safe(avm.Customer.Address, "-")},
	}
	if c := avm.Customer.Contact; c.HasAny() {
		parts := make([]string, 0, 3)
		for _, p := range []string{c.Name, c.Phone, c.Email} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		rows = append(rows, [2]string{"Contactpersoon", strings.Join(parts, " / ")})
	}
	return append(rows,
		[2]string{"Locatie", preview.Safe(avm.Location.Name, "-")},
		[2]string{"Adres locatie", preview.Safe(avm.Location.Address, "-")},
		[2]string{"Startdatum", preview.Safe(preview.FormatDate(avm.Start()), "-")},
		[2]string{"Einddatum", preview.Safe(preview.FormatDate(avm.End()), "-")},
	)
}

// projectTable renders the project data as a two-column key/value table.
func projectTable(pdf *fpdf.Fpdf, pv preview.Preview) {
	t := table.New(pdf, dossierTableStyle())
	t.SetColumns(table.Column{Width: 130}, table.Column{})
	for _, r := range ProjectRows(pv) {
		t.AddRow(r[0], r[1])
	}
	t.Render()
}

// responsibleContent renders the responsible person's name and, when
// linked, their mini bio image. The full bio document is appended to this
// section during splicing.
func (g *Generator) responsibleContent(ctx context.Context, pdf *fpdf.Fpdf, pv preview.Preview) {
	pdf.SetFont("Helvetica", "", 11)
	if pv.Responsible == "" {
		pdf.Text(MarginLeft, ContentTop+14, "Geen verantwoordelijke geselecteerd.")
		return
	}
	pdf.Text(MarginLeft, ContentTop+14, "Projectverantwoordelijke:")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(MarginLeft, ContentTop+34, pv.Responsible)

	if bio := g.fetcher.FetchImage(ctx, pv.Documents.CrewBioMini, 500); bio != nil {
		embedPNG(pdf, "crew-bio", bio, MarginLeft, ContentTop+52, 150, 0)
	}
}

// materialsContent renders the two material subsections. Both category
// headings always appear; an empty category carries the placeholder line
// instead of a table. Table page breaks redraw the section banner through
// the OnPageBreak hook.
func materialsContent(pdf *fpdf.Fpdf, pv preview.Preview, sec Section) {
	materialTable(pdf, sec, fmt.Sprintf("%d.1 Pyrotechnische materialen", sec.Number),
		pv.Materials.Dees, hasNEC(pv.Materials.Dees))
	materialTable(pdf, sec, fmt.Sprintf("%d.2 Speciale effecten", sec.Number),
		pv.Materials.AVM, false)
}

func hasNEC(items []preview.Material) bool {
	for _, m := range items {
		if m.NEC != "" {
			return true
		}
	}
	return false
}

// MaterialTableData returns the header and rows of a material table. The
// net explosive content column is included only when withNEC is set.
func MaterialTableData(items []preview.Material, withNEC bool) (header []string, rows [][]string) {
	header = []string{"Naam", "Aantal", "Type", "CE", "Manual", "MSDS"}
	if withNEC {
		header = append(header, "NEC")
	}
	mark := func(ok bool) string {
		if ok {
			return "ja"
		}
		return ""
	}
	for _, m := range items {
		row := []string{
			preview.Safe(m.DisplayName, "-"),
			preview.Safe(m.Quantity(), "-"),
			m.Type,
			mark(m.HasCE()),
			mark(m.HasManual()),
			mark(m.HasMSDS()),
		}
		if withNEC {
			row = append(row, m.NEC)
		}
		rows = append(rows, row)
	}
	return header, rows
}

// materialTable renders one category heading plus its item table, or the
// placeholder line when the category is empty. withNEC adds the net
// explosive content column used for pyrotechnic items.
func materialTable(pdf *fpdf.Fpdf, sec Section, heading string, items []preview.Material, withNEC bool) {
	const headingH = 34.0
	if pdf.GetY() > PageHeight-MarginBottom-headingH-40 {
		pdf.AddPage()
		drawBanner(pdf, sec.Label())
		drawMarker(pdf, sec.Key)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(bannerRed[0], bannerRed[1], bannerRed[2])
	pdf.SetXY(MarginLeft, pdf.GetY()+10)
	pdf.CellFormat(0, 18, heading, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(pdf.GetY() + 4)

	if len(items) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetX(MarginLeft)
		pdf.CellFormat(0, 16, "Geen items geselecteerd.", "", 1, "L", false, 0, "")
		return
	}

	t := table.New(pdf, dossierTableStyle())
	t.OnPageBreak = func() {
		drawBanner(pdf, sec.Label())
		drawMarker(pdf, sec.Key)
	}

	cols := []table.Column{
		{},                      // Naam
		{Width: 45, Align: "C"}, // Aantal
		{Width: 85},             // Type
		{Width: 40, Align: "C"}, // CE
		{Width: 50, Align: "C"}, // Manual
		{Width: 40, Align: "C"}, // MSDS
	}
	if withNEC {
		cols = append(cols, table.Column{Width: 55, Align: "R"})
	}
	header, rows := MaterialTableData(items, withNEC)
	t.SetColumns(cols...)
	t.SetHeader(header...)
	for _, row := range rows {
		t.AddRow(row...)
	}
	t.Render()
}
