// Package fetch retrieves externally referenced document bytes for dossier
// assembly. A reference is either a base64 data URI or an http(s) URL.
//
// Every retrieval is best-effort: decode errors, network errors, timeouts and
// non-2xx responses all yield nil bytes. The calling section then renders as
// if the document were absent; a broken reference never fails the request.
package fetch

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single network fetch so an unreachable host cannot
// hang the request indefinitely.
const DefaultTimeout = 25 * time.Second

// DefaultMaxBytes caps the size of a single fetched resource.
const DefaultMaxBytes = 32 << 20 // 32 MiB

// Fetcher retrieves document bytes from data URIs and URLs.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	log      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request network timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithMaxBytes caps the number of bytes read from a single resource.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithLogger sets the logger used for debug-level fetch failures.
func WithLogger(log *slog.Logger) Option {
	return func(f *Fetcher) {
		f.log = log
	}
}

// New creates a Fetcher with the default timeout and size cap.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: DefaultTimeout},
		maxBytes: DefaultMaxBytes,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the bytes behind ref, or nil when ref is empty, malformed,
// or unreachable. It never returns an error: absence is the failure mode.
func (f *Fetcher) Fetch(ctx context.Context, ref string) []byte {
	if ref == "" {
		return nil
	}
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURI(ref)
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return f.get(ctx, ref)
	}
	return nil
}

// get performs a single GET with the configured timeout. One attempt,
// no retries.
func (f *Fetcher) get(ctx context.Context, url string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Debug("fetch failed", "url", url, "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.log.Debug("fetch rejected", "url", url, "status", resp.StatusCode)
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		f.log.Debug("fetch read failed", "url", url, "err", err)
		return nil
	}
	if int64(len(data)) > f.maxBytes {
		// A truncated document would only fail to parse later.
		f.log.Debug("fetch exceeds size cap", "url", url, "cap", f.maxBytes)
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

// decodeDataURI decodes the payload of a data:<mime>;base64,<payload> URI.
// Returns nil for any malformed input.
func decodeDataURI(uri string) []byte {
	_, payload, ok := strings.Cut(uri, ",")
	if !ok || payload == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients URL-safe-encode upload payloads.
		data, err = base64.URLEncoding.DecodeString(payload)
		if err != nil {
			return nil
		}
	}
	if len(data) == 0 {
		return nil
	}
	return data
}
