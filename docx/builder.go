// Package docx writes dossiers as Office Open XML word processing
// documents. The package builds the document part by part: headings,
// paragraphs, tables, inline PNG images and external hyperlinks, then
// packages everything into the OPC zip container.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// emuPerPixel converts 96dpi pixels to English Metric Units.
const emuPerPixel = 9525

type relationship struct {
	id       string
	relType  string
	target   string
	external bool
}

type mediaFile struct {
	name string
	data []byte
}

// Document accumulates a word processing document.
type Document struct {
	title   string
	created time.Time
	body    bytes.Buffer
	rels    []relationship
	media   []mediaFile
	nextID  int
}

// New creates an empty document with the given title property.
func New(title string) *Document {
	return &Document{title: title, created: time.Now().UTC()}
}

func (d *Document) relID(relType, target string, external bool) string {
	d.nextID++
	id := fmt.Sprintf("rId%d", d.nextID+10) // 1..10 reserved for fixed parts
	d.rels = append(d.rels, relationship{id: id, relType: relType, target: target, external: external})
	return id
}

func esc(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Heading appends a styled heading paragraph. Levels 1 and 2 are defined;
// anything else falls back to level 2.
func (d *Document) Heading(level int, text string) {
	style := "Heading2"
	if level <= 1 {
		style = "Heading1"
	}
	fmt.Fprintf(&d.body,
		`<w:p><w:pPr><w:pStyle w:val="%s"/></w:pPr><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`,
		style, esc(text))
}

// Paragraph appends a plain body paragraph.
func (d *Document) Paragraph(text string) {
	fmt.Fprintf(&d.body,
		`<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, esc(text))
}

// LabeledParagraph appends a paragraph with a regular label followed by a
// bold value.
func (d *Document) LabeledParagraph(label, value string) {
	fmt.Fprintf(&d.body,
		`<w:p><w:r><w:t xml:space="preserve">%s </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`,
		esc(label), esc(value))
}

// Hyperlink appends a paragraph containing one external link.
func (d *Document) Hyperlink(text, url string) {
	id := d.relID("http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink", url, true)
	fmt.Fprintf(&d.body,
		`<w:p><w:hyperlink r:id="%s"><w:r><w:rPr><w:color w:val="0563C1"/><w:u w:val="single"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:hyperlink></w:p>`,
		id, esc(text))
}

// KeyValueTable appends a two-column table without a header row.
func (d *Document) KeyValueTable(rows [][2]string) {
	d.body.WriteString(tableOpen)
	for _, r := range rows {
		d.body.WriteString("<w:tr>")
		d.cell(r[0], true)
		d.cell(r[1], false)
		d.body.WriteString("</w:tr>")
	}
	d.body.WriteString(tableClose)
}

// Table appends a bordered table with a bold header row.
func (d *Document) Table(header []string, rows [][]string) {
	d.body.WriteString(tableOpen)
	d.body.WriteString("<w:tr>")
	for _, h := range header {
		d.cell(h, true)
	}
	d.body.WriteString("</w:tr>")
	for _, row := range rows {
		d.body.WriteString("<w:tr>")
		for _, c := range row {
			d.cell(c, false)
		}
		d.body.WriteString("</w:tr>")
	}
	d.body.WriteString(tableClose)
}

const tableOpen = `<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/><w:tblBorders>` +
	`<w:top w:val="single" w:sz="4" w:color="BBBBBB"/>` +
	`<w:left w:val="single" w:sz="4" w:color="BBBBBB"/>` +
	`<w:bottom w:val="single" w:sz="4" w:color="BBBBBB"/>` +
	`<w:right w:val="single" w:sz="4" w:color="BBBBBB"/>` +
	`<w:insideH w:val="single" w:sz="4" w:color="BBBBBB"/>` +
	`<w:insideV w:val="single" w:sz="4" w:color="BBBBBB"/>` +
	`</w:tblBorders></w:tblPr>`

// A paragraph after the table keeps Word from gluing adjacent tables together.
const tableClose = `</w:tbl><w:p/>`

func (d *Document) cell(text string, bold bool) {
	run := `<w:r><w:t xml:space="preserve">` + esc(text) + `</w:t></w:r>`
	if bold {
		run = `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + esc(text) + `</w:t></w:r>`
	}
	fmt.Fprintf(&d.body, `<w:tc><w:tcPr><w:tcMar><w:top w:w="40" w:type="dxa"/><w:bottom w:w="40" w:type="dxa"/></w:tcMar></w:tcPr><w:p>%s</w:p></w:tc>`, run)
}

// Image appends an inline PNG image sized in pixels at 96dpi.
func (d *Document) Image(png []byte, widthPx, heightPx int) {
	if len(png) == 0 || widthPx <= 0 || heightPx <= 0 {
		return
	}
	name := fmt.Sprintf("image%d.png", len(d.media)+1)
	d.media = append(d.media, mediaFile{name: name, data: png})
	id := d.relID("http://schemas.openxmlformats.org/officeDocument/2006/relationships/image", "media/"+name, false)

	cx := int64(widthPx) * emuPerPixel
	cy := int64(heightPx) * emuPerPixel
	n := len(d.media)
	fmt.Fprintf(&d.body,
		`<w:p><w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
			`<wp:extent cx="%d" cy="%d"/>`+
			`<wp:docPr id="%d" name="%s"/>`+
			`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:pic><pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`+
			`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
			`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
			`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`,
		cx, cy, n, name, n, name, id, cx, cy)
}

// Bytes packages the document into its zip container.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", d.contentTypes()},
		{"_rels/.rels", rootRels},
		{"word/document.xml", d.documentXML()},
		{"word/_rels/document.xml.rels", d.documentRels()},
		{"word/styles.xml", stylesXML},
		{"docProps/core.xml", d.coreXML()},
		{"docProps/app.xml", appXML},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("docx: creating part %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("docx: writing part %s: %w", p.name, err)
		}
	}
	for _, m := range d.media {
		w, err := zw.Create("word/media/" + m.name)
		if err != nil {
			return nil, fmt.Errorf("docx: creating media %s: %w", m.name, err)
		}
		if _, err := w.Write(m.data); err != nil {
			return nil, fmt.Errorf("docx: writing media %s: %w", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx: closing container: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *Document) contentTypes() string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	if len(d.media) > 0 {
		b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	}
	b.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	b.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	b.WriteString(`</Types>`)
	return b.String()
}

func (d *Document) documentXML() string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document` +
		` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	b.WriteString(`<w:body>`)
	b.Write(d.body.Bytes())
	b.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134"/></w:sectPr>`)
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func (d *Document) documentRels() string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	for _, r := range d.rels {
		mode := ""
		if r.external {
			mode = ` TargetMode="External"`
		}
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"%s/>`, r.id, r.relType, esc(r.target), mode)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func (d *Document) coreXML() string {
	stamp := d.created.Format(time.RFC3339)
	return xml.Header +
		`<cp:coreProperties` +
		` xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/"` +
		` xmlns:dcterms="http://purl.org/dc/terms/"` +
		` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + esc(d.title) + `</dc:title>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

const rootRels = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const appXML = xml.Header +
	`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>dossier-server</Application>` +
	`</Properties>`

const stylesXML = xml.Header +
	`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:docDefaults><w:rPrDefault><w:rPr>` +
	`<w:rFonts w:ascii="Helvetica" w:hAnsi="Helvetica"/><w:sz w:val="20"/>` +
	`</w:rPr></w:rPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/>` +
	`<w:pPr><w:spacing w:before="280" w:after="120"/></w:pPr>` +
	`<w:rPr><w:b/><w:color w:val="B00000"/><w:sz w:val="32"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/>` +
	`<w:pPr><w:spacing w:before="200" w:after="80"/></w:pPr>` +
	`<w:rPr><w:b/><w:color w:val="B00000"/><w:sz w:val="24"/></w:rPr></w:style>` +
	`</w:styles>`
