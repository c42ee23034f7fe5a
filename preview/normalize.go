package preview

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format selects the output document type of a generation request.
type Format string

// Supported output formats.
const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Request is a decoded /generate request body.
type Request struct {
	Preview Preview
	Format  Format
}

// envelope is the outer request shape. Preview is kept raw so the
// whole-body fallback can reuse the same bytes.
type envelope struct {
	Preview json.RawMessage `json:"preview"`
	Format  string          `json:"format"`
}

// Decode parses a /generate request body. If the body carries a "preview"
// key that object is the payload; otherwise the entire body is treated as
// the payload (compatibility with older wizard clients). Any format selector
// other than "docx" yields pdf.
func Decode(body []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Request{}, fmt.Errorf("preview: decoding request: %w", err)
	}

	raw := env.Preview
	if len(raw) == 0 || string(raw) == "null" {
		raw = body
	}

	var req Request
	if err := json.Unmarshal(raw, &req.Preview); err != nil {
		return Request{}, fmt.Errorf("preview: decoding payload: %w", err)
	}

	if strings.ToLower(env.Format) == "docx" {
		req.Format = FormatDOCX
	} else {
		req.Format = FormatPDF
	}
	return req, nil
}

// Safe returns s, or def when s is empty.
func Safe(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// dateLayouts are the accepted input forms, tried in order. The wizard sends
// plain dates or full ISO-8601 timestamps, with or without a trailing Z.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormatDate renders a wizard date value as DD/MM/YYYY. Values that parse as
// none of the accepted forms pass through verbatim rather than failing;
// the empty string stays empty.
func FormatDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006")
		}
	}
	// Timestamps with sub-second precision or offsets not covered above:
	// retry on the first 10 characters if they look like a date.
	if len(s) > 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return s
}
