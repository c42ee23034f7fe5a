// Package reader parses PDF documents held in memory so the dossier pipeline
// can validate externally supplied files, count their pages, read page
// dimensions, and recover section markers from generated base documents.
//
// It is a deliberately small parser: classic and stream cross-reference
// tables, the common stream filters, the page tree, and basic text
// extraction. Encrypted documents are rejected; a file we cannot inspect is
// treated by the pipeline the same as a file we could not fetch.
package reader

import (
	"bytes"
	"errors"
	"fmt"
)

// Sentinel errors for inputs the dossier pipeline treats as absent documents.
var (
	ErrNotPDF    = errors.New("reader: data is not a PDF")
	ErrCorrupted = errors.New("reader: document is corrupted")
	ErrEncrypted = errors.New("reader: document is encrypted")
)

// Document is a parsed, read-only view of a PDF held in memory.
type Document struct {
	Version string // from the %PDF- header, e.g. "1.4"

	data    []byte
	xref    xrefTable
	trailer Dict
	pages   []*Page
}

// Parse builds a Document from raw PDF bytes.
func Parse(data []byte) (*Document, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00 \t\r\n"), []byte("%PDF-")) {
		return nil, ErrNotPDF
	}

	doc := &Document{data: data, Version: headerVersion(data)}

	start, err := findStartXref(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	doc.xref, doc.trailer, err = parseXref(data, start, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	if _, encrypted := doc.trailer["Encrypt"]; encrypted {
		return nil, ErrEncrypted
	}

	if err := doc.collectPages(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return doc, nil
}

// headerVersion extracts the version digits from the %PDF- header.
func headerVersion(data []byte) string {
	head := data
	if len(head) > 64 {
		head = head[:64]
	}
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return ""
	}
	end := idx + 5
	for end < len(data) && data[end] != '\r' && data[end] != '\n' {
		end++
	}
	return string(data[idx+5 : end])
}

// NumPages returns the number of pages in the document.
func (d *Document) NumPages() int { return len(d.pages) }

// Page returns the page at the given 1-based index.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("reader: page %d out of range [1, %d]", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// resolve follows an indirect reference to its object value.
func (d *Document) resolve(ref Ref) (any, error) {
	entry, ok := d.xref[ref.Num]
	if !ok || !entry.inUse {
		return nil, nil
	}
	if entry.compressed {
		return d.resolveCompressed(entry)
	}
	if entry.offset < 0 || int(entry.offset) >= len(d.data) {
		return nil, fmt.Errorf("reader: object %d offset out of bounds", ref.Num)
	}
	lex := newLexer(d.data[entry.offset:])
	obj, err := lex.indirectObject()
	if err != nil {
		return nil, fmt.Errorf("reader: object %d: %w", ref.Num, err)
	}
	return obj, nil
}

// resolveCompressed loads an object stored inside an object stream
// (xref type 2 entry: offset holds the stream's object number,
// gen holds the index within it).
func (d *Document) resolveCompressed(entry xrefEntry) (any, error) {
	container, err := d.resolve(Ref{Num: int(entry.offset)})
	if err != nil {
		return nil, err
	}
	stm, ok := container.(Stream)
	if !ok {
		return nil, fmt.Errorf("reader: object stream %d is not a stream", entry.offset)
	}
	data, err := decodeStream(stm)
	if err != nil {
		return nil, fmt.Errorf("reader: decoding object stream: %w", err)
	}

	n := dictInt(stm.Dict, "N")
	first := dictInt(stm.Dict, "First")

	// Header: N pairs of "objnum offset".
	head := newLexer(data)
	for i := int64(0); i < n; i++ {
		if i == int64(entry.gen) {
			head.token() // object number
			off, err := head.int()
			if err != nil {
				return nil, fmt.Errorf("reader: object stream header: %w", err)
			}
			body := newLexer(data[first+off:])
			return body.object()
		}
		head.token()
		head.token()
	}
	return nil, fmt.Errorf("reader: index %d beyond object stream", entry.gen)
}

// deref resolves v if it is a reference, otherwise returns it unchanged.
func (d *Document) deref(v any) any {
	if ref, ok := v.(Ref); ok {
		resolved, err := d.resolve(ref)
		if err != nil {
			return nil
		}
		return resolved
	}
	return v
}
