package reader

import (
	"fmt"
)

// Rect is a PDF rectangle [llx lly urx ury].
type Rect struct {
	LLX, LLY, URX, URY float64
}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.URX - r.LLX }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.URY - r.LLY }

// Page is a single page of a parsed document.
type Page struct {
	Number   int // 1-based
	MediaBox Rect
	Rotate   int

	contents []Stream
	doc      *Document
}

// ContentStream returns the page's decoded content, concatenating multiple
// streams when present.
func (p *Page) ContentStream() ([]byte, error) {
	var out []byte
	for _, s := range p.contents {
		decoded, err := decodeStream(s)
		if err != nil {
			return nil, fmt.Errorf("reader: page %d content: %w", p.Number, err)
		}
		out = append(out, decoded...)
		out = append(out, '\n')
	}
	return out, nil
}

// collectPages walks the page tree into a flat, ordered page list.
func (d *Document) collectPages() error {
	root, ok := d.deref(d.trailer["Root"]).(Dict)
	if !ok {
		return fmt.Errorf("missing document catalog")
	}
	pages, ok := d.deref(root["Pages"]).(Dict)
	if !ok {
		return fmt.Errorf("missing page tree root")
	}
	d.pages = nil
	return d.walkPageTree(pages, Dict{}, 0)
}

// inheritable page attributes per the PDF spec.
var inheritable = []Name{"MediaBox", "Resources", "Rotate"}

func (d *Document) walkPageTree(node Dict, inherited Dict, depth int) error {
	if depth > 64 {
		return fmt.Errorf("page tree too deep")
	}

	merged := make(Dict, len(inherited)+len(inheritable))
	for k, v := range inherited {
		merged[k] = v
	}
	for _, key := range inheritable {
		if v, ok := node[key]; ok {
			merged[key] = v
		}
	}

	if node.name("Type") == "Page" {
		page := &Page{Number: len(d.pages) + 1, doc: d}

		if arr, ok := d.deref(merged["MediaBox"]).([]any); ok {
			if rect, err := parseRect(arr); err == nil {
				page.MediaBox = rect
			}
		}
		if n, ok := d.deref(merged["Rotate"]).(int64); ok {
			page.Rotate = int(n)
		}

		switch c := d.deref(node["Contents"]).(type) {
		case Stream:
			page.contents = []Stream{c}
		case []any:
			for _, item := range c {
				if s, ok := d.deref(item).(Stream); ok {
					page.contents = append(page.contents, s)
				}
			}
		}

		d.pages = append(d.pages, page)
		return nil
	}

	kids, ok := d.deref(node["Kids"]).([]any)
	if !ok {
		return nil
	}
	for _, kid := range kids {
		kidDict, ok := d.deref(kid).(Dict)
		if !ok {
			continue
		}
		if err := d.walkPageTree(kidDict, merged, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// name reads a name entry, empty when absent or of another type.
func (d Dict) name(key Name) Name {
	if n, ok := d[key].(Name); ok {
		return n
	}
	return ""
}

// parseRect converts a 4-element numeric array to a Rect.
func parseRect(arr []any) (Rect, error) {
	if len(arr) != 4 {
		return Rect{}, fmt.Errorf("rectangle must have 4 elements")
	}
	var vals [4]float64
	for i, v := range arr {
		switch n := v.(type) {
		case int64:
			vals[i] = float64(n)
		case float64:
			vals[i] = n
		default:
			return Rect{}, fmt.Errorf("rectangle element %d is %T", i, v)
		}
	}
	return Rect{LLX: vals[0], LLY: vals[1], URX: vals[2], URY: vals[3]}, nil
}
