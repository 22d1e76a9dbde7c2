// Package fetcher downloads the listing page and decodes it from EUC-KR.
package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

const (
	// DefaultUserAgent mimics a generic browser so the page is not refused outright.
	DefaultUserAgent = "Mozilla/5.0 (compatible; IPOBot/1.0)"
	DefaultTimeout   = 10 * time.Second

	maxBodyBytes      = 8 << 20
	errorSnippetBytes = 4 << 10
)

// ErrBodyTooLarge means the page exceeded the size limit. Truncated pages are never parsed.
var ErrBodyTooLarge = errors.New("response body too large")

// HTTPError carries status and a body snippet for non-2xx responses.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 300))
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Fetcher issues a single GET per call. It never retries.
type Fetcher struct {
	URL       string
	UserAgent string
	Client    *http.Client
	Encoding  encoding.Encoding
}

// New returns a Fetcher for url with the given timeout (DefaultTimeout when <= 0).
func New(url, userAgent string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		URL:       url,
		UserAgent: userAgent,
		// Compression is handled in Fetch so brotli bodies can be read too.
		Client:   &http.Client{Timeout: timeout, Transport: &http.Transport{DisableCompression: true, Proxy: http.ProxyFromEnvironment}},
		Encoding: korean.EUCKR,
	}
}

// Fetch downloads the page and returns it decoded to UTF-8.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Encoding", "br, gzip")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{Method: req.Method, URL: f.URL, StatusCode: resp.StatusCode, Body: errorBody(resp)}
	}

	body, err := decompress(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body from %s: %w", f.URL, err)
	}
	if len(raw) > maxBodyBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, f.URL, maxBodyBytes)
	}

	enc := f.Encoding
	if enc == nil {
		enc = korean.EUCKR
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode body from %s: %w", f.URL, err)
	}
	return string(decoded), nil
}

// errorBody reads a short snippet of a failed response. When the snippet cannot be
// decompressed the raw bytes are kept.
func errorBody(resp *http.Response) []byte {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetBytes))
	r, err := decompress(resp.Header.Get("Content-Encoding"), bytes.NewReader(raw))
	if err != nil {
		return raw
	}
	decoded, err := io.ReadAll(r)
	if err != nil && len(decoded) == 0 {
		return raw
	}
	return decoded
}

func decompress(contentEncoding string, body io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "br":
		return brotli.NewReader(body), nil
	case "gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		return zr, nil
	default:
		return body, nil
	}
}
