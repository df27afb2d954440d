// Package http provides the SSRF-guarded HTTP implementation of
// seoaudit.Fetcher, robots.txt and sitemap discovery, and the web server.
package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/seoaudit"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultFetchTimeout is the total time allowed for one request.
	DefaultFetchTimeout = 20 * time.Second

	// DefaultMaxBytes caps how much of an HTML body is read.
	DefaultMaxBytes = 4 << 20

	// MaxRedirects is the number of redirects followed per request.
	MaxRedirects = 10
)

// Ensure Fetcher implements seoaudit.Fetcher at compile time.
var _ seoaudit.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves pages over HTTP. Connections to non-public addresses
// are refused at dial time and redirects may not leave the registrable
// domain of the requested URL.
type Fetcher struct {
	client    *http.Client
	transport *http.Transport
	guard     *Guard

	timeout   time.Duration
	userAgent string
	maxBytes  int64
	ipv4Only  bool
	insecure  bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the total timeout for a request.
// Defaults to DefaultFetchTimeout (20s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBytes sets the maximum number of body bytes read.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithIPv4Only restricts dialing to IPv4.
func WithIPv4Only() Option {
	return func(f *Fetcher) {
		f.ipv4Only = true
	}
}

// WithInsecureTLS disables certificate verification.
func WithInsecureTLS() Option {
	return func(f *Fetcher) {
		f.insecure = true
	}
}

// WithAllowPrivate permits connections to private and loopback addresses.
func WithAllowPrivate() Option {
	return func(f *Fetcher) {
		f.guard.AllowPrivate = true
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		guard:     &Guard{},
		timeout:   DefaultFetchTimeout,
		userAgent: seoaudit.DefaultUserAgent,
		maxBytes:  DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}

	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: f.guard.Control,
	}
	dial := dialer.DialContext
	if f.ipv4Only {
		dial = func(ctx context.Context, _, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp4", addr)
		}
	}

	f.transport = &http.Transport{
		Proxy:               nil,
		DialContext:         dial,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	if f.insecure {
		f.transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in
	}

	f.client = &http.Client{
		Timeout:       f.timeout,
		Transport:     f.transport,
		CheckRedirect: f.checkRedirect,
	}

	return f
}

// Guard returns the address guard used by the fetcher.
func (f *Fetcher) Guard() *Guard {
	return f.guard
}

// Client returns the guarded HTTP client, for robots.txt and sitemap
// requests that share the fetcher's safety rules.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= MaxRedirects {
		return seoaudit.Errorf(seoaudit.EFORBIDDEN, "stopped after %d redirects", MaxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return seoaudit.Errorf(seoaudit.EFORBIDDEN, "%s: redirect to %s", ReasonHostChanged, req.URL)
	}
	orig := via[0].URL.Hostname()
	if seoaudit.RegistrableDomain(orig) != seoaudit.RegistrableDomain(req.URL.Hostname()) {
		return seoaudit.Errorf(seoaudit.EFORBIDDEN, "%s: redirect to %s", ReasonHostChanged, req.URL)
	}
	return nil
}

// Fetch retrieves the URL. HTTP error statuses are returned as a Response;
// an error means no response was obtained.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*seoaudit.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, seoaudit.Errorf(seoaudit.EINVALID, "invalid URL %q", url)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, unwrapAppError(err)
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	out := &seoaudit.Response{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: ct,
		XRobotsTag:  strings.Join(resp.Header.Values("X-Robots-Tag"), ", "),
		Redirects:   countRedirects(resp),
		IsHTML:      IsHTMLContentType(ct),
	}

	if resp.StatusCode == http.StatusOK && out.IsHTML {
		body, err := f.readBody(resp.Body, ct)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		out.Body = body
	}

	return out, nil
}

// readBody reads at most maxBytes and decodes the content to UTF-8.
// Anything past the cap is dropped.
func (f *Fetcher) readBody(r io.Reader, contentType string) (string, error) {
	limited := io.LimitReader(r, f.maxBytes)
	decoded, err := charset.NewReader(limited, contentType)
	if err != nil {
		decoded = limited
	}
	b, err := io.ReadAll(decoded)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.transport.CloseIdleConnections()
	return nil
}

// IsHTMLContentType reports whether ct names an HTML document.
func IsHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

func countRedirects(resp *http.Response) int {
	n := 0
	for r := resp.Request; r != nil && r.Response != nil; r = r.Response.Request {
		n++
	}
	return n
}

// unwrapAppError surfaces guard rejections buried in url.Error and
// net.OpError so callers can switch on the error code.
func unwrapAppError(err error) error {
	var appErr *seoaudit.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return err
}
