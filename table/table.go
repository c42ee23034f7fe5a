// Package table renders text tables into dossier PDF pages.
//
// It supports fixed and auto-fill column widths, header rows repeated after
// every page break, and an OnPageBreak hook so section pages can redraw
// their banner before the table continues.
package table

import (
	"github.com/go-pdf/fpdf"
)

// RGB is an RGB color value.
type RGB struct {
	R, G, B int
}

// Font describes a font face for table text.
type Font struct {
	Family string
	Style  string // "", "B", "I", "BI"
	Size   float64
}

// Column defines one table column.
type Column struct {
	Width float64 // fixed width in points; 0 auto-fills remaining space
	Align string  // "L" (default), "C", "R"
}

// Style is the visual definition of a table.
type Style struct {
	CellFont    Font
	HeaderFont  Font
	HeaderFill  RGB
	HeaderText  RGB
	GridColor   RGB
	GridWidth   float64
	CellPadding float64
	LineHeight  float64 // text line height; 0 derives from the cell font size
}

// Table renders rows of text cells to a PDF document.
type Table struct {
	pdf     *fpdf.Fpdf
	columns []Column
	header  []string
	rows    [][]string
	style   Style
	width   float64 // 0 means page width minus margins

	// OnPageBreak runs after an automatic page break, once the new page has
	// been added and before the header row is repeated. Section pages use it
	// to redraw their banner.
	OnPageBreak func()
}

// New creates a table bound to the given document.
func New(pdf *fpdf.Fpdf, style Style) *Table {
	if style.CellPadding == 0 {
		style.CellPadding = 3
	}
	if style.GridWidth == 0 {
		style.GridWidth = 0.25
	}
	if style.LineHeight == 0 {
		style.LineHeight = style.CellFont.Size * 1.4
	}
	return &Table{pdf: pdf, style: style}
}

// SetColumns defines the table columns.
func (t *Table) SetColumns(cols ...Column) *Table {
	t.columns = cols
	return t
}

// SetWidth fixes the total table width. Without it the table spans the page
// width minus margins.
func (t *Table) SetWidth(w float64) *Table {
	t.width = w
	return t
}

// SetHeader sets the header row, repeated after every page break.
func (t *Table) SetHeader(cells ...string) *Table {
	t.header = cells
	return t
}

// AddRow appends one data row.
func (t *Table) AddRow(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// Render draws the table at the current cursor position, breaking onto new
// pages as needed.
func (t *Table) Render() error {
	widths := t.resolveWidths()
	if len(widths) == 0 {
		return t.pdf.Error()
	}

	startX := t.pdf.GetX()
	_, pageH := t.pdf.GetPageSize()
	_, _, _, bottom := t.pdf.GetMargins()
	limitY := pageH - bottom

	if len(t.header) > 0 {
		t.drawRow(t.header, widths, startX, true)
	}
	for _, row := range t.rows {
		rowH := t.rowHeight(row, widths, false)
		if t.pdf.GetY()+rowH > limitY {
			t.pdf.AddPage()
			if t.OnPageBreak != nil {
				t.OnPageBreak()
			}
			if len(t.header) > 0 {
				t.pdf.SetX(startX)
				t.drawRow(t.header, widths, startX, true)
			}
		}
		t.drawRow(row, widths, startX, false)
	}
	return t.pdf.Error()
}

// resolveWidths distributes the available width over fixed and auto columns.
func (t *Table) resolveWidths() []float64 {
	total := t.width
	if total == 0 {
		pageW, _ := t.pdf.GetPageSize()
		left, _, right, _ := t.pdf.GetMargins()
		total = pageW - left - right
	}
	n := len(t.columns)
	if n == 0 {
		return nil
	}

	widths := make([]float64, n)
	fixed := 0.0
	auto := 0
	for i, col := range t.columns {
		if col.Width > 0 {
			widths[i] = col.Width
			fixed += col.Width
		} else {
			auto++
		}
	}
	if auto > 0 {
		remaining := total - fixed
		if remaining < 0 {
			remaining = 0
		}
		share := remaining / float64(auto)
		for i, col := range t.columns {
			if col.Width == 0 {
				widths[i] = share
			}
		}
	}
	return widths
}

// rowHeight computes the height a row needs, accounting for wrapped text.
func (t *Table) rowHeight(cells []string, widths []float64, header bool) float64 {
	t.applyFont(header)
	pad := t.style.CellPadding
	maxLines := 1
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		contentW := widths[i] - 2*pad
		if contentW < 1 {
			contentW = 1
		}
		lines := t.pdf.SplitText(cell, contentW)
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	return float64(maxLines)*t.style.LineHeight + 2*pad
}

// drawRow renders one row at the current Y position.
func (t *Table) drawRow(cells []string, widths []float64, startX float64, header bool) {
	rowH := t.rowHeight(cells, widths, header)
	pad := t.style.CellPadding
	y := t.pdf.GetY()

	t.pdf.SetDrawColor(t.style.GridColor.R, t.style.GridColor.G, t.style.GridColor.B)
	t.pdf.SetLineWidth(t.style.GridWidth)
	t.applyFont(header)

	x := startX
	for i, w := range widths {
		if header {
			t.pdf.SetFillColor(t.style.HeaderFill.R, t.style.HeaderFill.G, t.style.HeaderFill.B)
			t.pdf.Rect(x, y, w, rowH, "FD")
			t.pdf.SetTextColor(t.style.HeaderText.R, t.style.HeaderText.G, t.style.HeaderText.B)
		} else {
			t.pdf.Rect(x, y, w, rowH, "D")
			t.pdf.SetTextColor(0, 0, 0)
		}

		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		align := "L"
		if i < len(t.columns) && t.columns[i].Align != "" {
			align = t.columns[i].Align
		}

		t.pdf.SetXY(x+pad, y+pad)
		t.pdf.MultiCell(w-2*pad, t.style.LineHeight, cell, "", align, false)

		x += w
	}

	t.pdf.SetTextColor(0, 0, 0)
	t.pdf.SetXY(startX, y+rowH)
}

// applyFont selects the header or cell font.
func (t *Table) applyFont(header bool) {
	f := t.style.CellFont
	if header && t.style.HeaderFont.Family != "" {
		f = t.style.HeaderFont
	}
	t.pdf.SetFont(f.Family, f.Style, f.Size)
}
