package reader

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// PDF object values are represented with plain Go types:
// nil, bool, int64, float64, Name, []byte (strings), []any (arrays),
// Dict, Stream, and Ref.

// Name is a PDF name object without its leading slash (e.g. "Type").
type Name string

// Dict is a PDF dictionary keyed by name.
type Dict map[Name]any

// Stream is a PDF stream: its dictionary plus the raw (possibly
// filtered) data.
type Stream struct {
	Dict Dict
	Raw  []byte
}

// Ref is an indirect object reference ("N G R").
type Ref struct {
	Num int
	Gen int
}

// dictInt reads an integer entry from a dictionary, 0 when absent.
func dictInt(d Dict, key Name) int64 {
	switch v := d[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// lexer is a recursive descent reader over PDF syntax.
type lexer struct {
	data []byte
	pos  int
}

func newLexer(data []byte) *lexer {
	return &lexer{data: data}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skipSpace advances past whitespace and comments.
func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isSpace(b) {
			l.pos++
			continue
		}
		if b == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

// token reads the next run of regular characters.
func (l *lexer) token() string {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelim(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// int reads the next token as an integer.
func (l *lexer) int() (int64, error) {
	tok := l.token()
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected integer, got %q", tok)
	}
	return n, nil
}

// object parses the next PDF object at the current position.
func (l *lexer) object() (any, error) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return nil, io.ErrUnexpectedEOF
	}

	switch b := l.data[l.pos]; {
	case b == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			return l.dict()
		}
		return l.hexString()
	case b == '(':
		return l.literalString()
	case b == '/':
		return l.name()
	case b == '[':
		return l.array()
	case b == 't', b == 'f':
		tok := l.token()
		switch tok {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("unexpected keyword %q", tok)
	case b == 'n':
		if tok := l.token(); tok != "null" {
			return nil, fmt.Errorf("unexpected keyword %q", tok)
		}
		return nil, nil
	case b >= '0' && b <= '9', b == '+', b == '-', b == '.':
		return l.numberOrRef()
	default:
		return nil, fmt.Errorf("unexpected character %q at %d", b, l.pos)
	}
}

// name parses /Name, handling #XX escapes.
func (l *lexer) name() (Name, error) {
	if l.data[l.pos] != '/' {
		return "", fmt.Errorf("expected '/' at %d", l.pos)
	}
	l.pos++

	var buf bytes.Buffer
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isSpace(b) || isDelim(b) {
			break
		}
		if b == '#' && l.pos+2 < len(l.data) {
			hi, lo := unhex(l.data[l.pos+1]), unhex(l.data[l.pos+2])
			if hi >= 0 && lo >= 0 {
				buf.WriteByte(byte(hi<<4 | lo))
				l.pos += 3
				continue
			}
		}
		buf.WriteByte(b)
		l.pos++
	}
	return Name(buf.String()), nil
}

// numberOrRef parses an integer, real, or indirect reference "N G R".
func (l *lexer) numberOrRef() (any, error) {
	start := l.pos
	tok := l.token()

	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		after := l.pos
		l.skipSpace()
		if l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '9' {
			genTok := l.token()
			if gen, err := strconv.ParseInt(genTok, 10, 64); err == nil {
				l.skipSpace()
				if l.pos < len(l.data) && l.data[l.pos] == 'R' &&
					(l.pos+1 >= len(l.data) || isSpace(l.data[l.pos+1]) || isDelim(l.data[l.pos+1])) {
					l.pos++
					return Ref{Num: int(n), Gen: int(gen)}, nil
				}
			}
		}
		l.pos = after
		return n, nil
	}

	l.pos = start
	tok = l.token()
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", tok)
	}
	return f, nil
}

// literalString parses (text) with escapes and nested parentheses.
func (l *lexer) literalString() ([]byte, error) {
	l.pos++ // '('
	var buf bytes.Buffer
	depth := 1
	for l.pos < len(l.data) && depth > 0 {
		b := l.data[l.pos]
		l.pos++
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth > 0 {
				buf.WriteByte(b)
			}
		case '\\':
			if l.pos >= len(l.data) {
				return nil, fmt.Errorf("unterminated string escape")
			}
			esc := l.data[l.pos]
			l.pos++
			switch esc {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '(', ')', '\\':
				buf.WriteByte(esc)
			default:
				if esc >= '0' && esc <= '7' {
					oct := int(esc - '0')
					for i := 0; i < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; i++ {
						oct = oct*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					buf.WriteByte(byte(oct))
				} else {
					buf.WriteByte(esc)
				}
			}
		default:
			buf.WriteByte(b)
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unterminated literal string")
	}
	return buf.Bytes(), nil
}

// hexString parses <hex digits>.
func (l *lexer) hexString() ([]byte, error) {
	l.pos++ // '<'
	var buf bytes.Buffer
	hi := -1
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		if b == '>' {
			if hi >= 0 {
				buf.WriteByte(byte(hi << 4))
			}
			return buf.Bytes(), nil
		}
		if isSpace(b) {
			continue
		}
		v := unhex(b)
		if v < 0 {
			return nil, fmt.Errorf("invalid hex digit %q", b)
		}
		if hi < 0 {
			hi = v
		} else {
			buf.WriteByte(byte(hi<<4 | v))
			hi = -1
		}
	}
	return nil, fmt.Errorf("unterminated hex string")
}

// array parses [obj obj ...].
func (l *lexer) array() ([]any, error) {
	l.pos++ // '['
	var arr []any
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("unterminated array")
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return arr, nil
		}
		obj, err := l.object()
		if err != nil {
			return nil, fmt.Errorf("in array: %w", err)
		}
		arr = append(arr, obj)
	}
}

// dict parses << /Key value ... >>.
func (l *lexer) dict() (Dict, error) {
	l.pos += 2 // '<<'
	d := make(Dict)
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("unterminated dictionary")
		}
		if l.pos+1 < len(l.data) && l.data[l.pos] == '>' && l.data[l.pos+1] == '>' {
			l.pos += 2
			return d, nil
		}
		key, err := l.name()
		if err != nil {
			return nil, fmt.Errorf("dict key: %w", err)
		}
		val, err := l.object()
		if err != nil {
			return nil, fmt.Errorf("dict value for /%s: %w", key, err)
		}
		d[key] = val
	}
}

// indirectObject parses "N G obj ... endobj", attaching stream data
// when the body is a stream.
func (l *lexer) indirectObject() (any, error) {
	if _, err := l.int(); err != nil {
		return nil, fmt.Errorf("object number: %w", err)
	}
	if _, err := l.int(); err != nil {
		return nil, fmt.Errorf("generation: %w", err)
	}
	if tok := l.token(); tok != "obj" {
		return nil, fmt.Errorf("expected 'obj', got %q", tok)
	}

	val, err := l.object()
	if err != nil {
		return nil, err
	}

	l.skipSpace()
	if bytes.HasPrefix(l.data[l.pos:], []byte("stream")) {
		dict, ok := val.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream header is not a dictionary")
		}
		l.pos += len("stream")
		if l.pos < len(l.data) && l.data[l.pos] == '\r' {
			l.pos++
		}
		if l.pos < len(l.data) && l.data[l.pos] == '\n' {
			l.pos++
		}

		length := int(dictInt(dict, "Length"))
		if length < 0 || l.pos+length > len(l.data) {
			return nil, fmt.Errorf("stream length %d exceeds input", length)
		}
		raw := make([]byte, length)
		copy(raw, l.data[l.pos:l.pos+length])
		l.pos += length
		val = Stream{Dict: dict, Raw: raw}
	}
	return val, nil
}

// unhex returns the value of a hex digit, or -1.
func unhex(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}
