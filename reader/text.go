package reader

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// ExtractText returns the text content of the page, in content-stream order.
// It reads string operands of the Tj, TJ, ' and " operators inside BT/ET
// blocks. Custom encodings and CID fonts are out of scope; the dossier only
// needs this for its own generated pages and plain external documents.
func (p *Page) ExtractText() (string, error) {
	data, err := p.ContentStream()
	if err != nil {
		return "", err
	}
	return textFromContent(data), nil
}

// textFromContent scans a decoded content stream for shown text.
func textFromContent(data []byte) string {
	var out strings.Builder
	inText := false

	lex := newLexer(data)
	for lex.pos < len(data) {
		lex.skipSpace()
		if lex.pos >= len(data) {
			break
		}

		switch b := data[lex.pos]; {
		case b == '(':
			s, err := lex.literalString()
			if err != nil {
				return out.String()
			}
			if inText {
				out.WriteString(decodeText(s))
			}
		case b == '<' && (lex.pos+1 >= len(data) || data[lex.pos+1] != '<'):
			s, err := lex.hexString()
			if err != nil {
				return out.String()
			}
			if inText {
				out.WriteString(decodeText(s))
			}
		case b == '<':
			if _, err := lex.dict(); err != nil {
				return out.String()
			}
		case b == '[':
			arr, err := lex.array()
			if err != nil {
				return out.String()
			}
			if inText {
				for _, item := range arr {
					if s, ok := item.([]byte); ok {
						out.WriteString(decodeText(s))
					}
				}
			}
		case b == '/':
			if _, err := lex.name(); err != nil {
				return out.String()
			}
		default:
			tok := lex.token()
			if tok == "" {
				lex.pos++
				continue
			}
			switch tok {
			case "BT":
				inText = true
			case "ET":
				inText = false
				out.WriteByte(' ')
			case "Td", "TD", "T*":
				if inText {
					out.WriteByte(' ')
				}
			}
		}
	}
	return strings.TrimSpace(out.String())
}

// decodeText converts PDF string bytes to Go text: UTF-16BE when a BOM is
// present, byte-per-rune otherwise.
func decodeText(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		data = data[2:]
		if len(data)%2 != 0 {
			data = append(data, 0)
		}
		u16 := make([]uint16, len(data)/2)
		for i := range u16 {
			u16[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
		}
		return string(utf16.Decode(u16))
	}
	var b strings.Builder
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String()
}

// markerPattern matches the invisible section markers the base generator
// embeds on every section page.
var markerPattern = regexp.MustCompile(`\[SEC::([^\]]+)\]`)

// FindSectionMarkers scans every page for section markers and returns a map
// from section key to 0-based page index. Pages whose text cannot be
// extracted are skipped. When a key appears on several pages the first
// occurrence wins.
func FindSectionMarkers(doc *Document) map[string]int {
	found := make(map[string]int)
	for i := 0; i < doc.NumPages(); i++ {
		page := doc.pages[i]
		text, err := page.ExtractText()
		if err != nil {
			continue
		}
		for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
			if _, seen := found[m[1]]; !seen {
				found[m[1]] = i
			}
		}
	}
	return found
}
