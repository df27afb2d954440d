// Package rod renders JavaScript-heavy pages in headless Chrome.
package rod

import (
	"context"
	"fmt"
	neturl "net/url"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/seoaudit"
	"github.com/go-rod/rod/lib/proto"
)

// Defaults for rendered fetches.
const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultMaxBytes     = 4 << 20
)

var _ seoaudit.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using a recycled headless browser.
// Rendered pages carry no HTTP status, so every loaded page is reported as
// a 200 HTML response. Fetcher does not vet addresses; callers must check
// URLs before fetching. A navigation that ends outside the registrable
// domain of the requested URL is rejected with EFORBIDDEN. It is safe for
// concurrent use.
type Fetcher struct {
	manager   *BrowserManager
	timeout   time.Duration
	userAgent string
	maxBytes  int
	closed    atomic.Bool
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*fetcherConfig)

type fetcherConfig struct {
	timeout     time.Duration
	userAgent   string
	maxBytes    int
	managerOpts []ManagerOption
}

// WithFetchTimeout bounds a single page load including rendering.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(c *fetcherConfig) { c.timeout = d }
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) FetcherOption {
	return func(c *fetcherConfig) { c.userAgent = ua }
}

// WithMaxBytes caps the length of returned HTML.
func WithMaxBytes(n int) FetcherOption {
	return func(c *fetcherConfig) { c.maxBytes = n }
}

// WithManagerOptions passes options to the underlying BrowserManager.
func WithManagerOptions(opts ...ManagerOption) FetcherOption {
	return func(c *fetcherConfig) { c.managerOpts = append(c.managerOpts, opts...) }
}

// NewFetcher launches a headless browser. Close must be called when the
// Fetcher is no longer needed.
func NewFetcher(opts ...FetcherOption) (*Fetcher, error) {
	cfg := fetcherConfig{
		timeout:  DefaultFetchTimeout,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(cfg.managerOpts...)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		manager:   manager,
		timeout:   cfg.timeout,
		userAgent: cfg.userAgent,
		maxBytes:  cfg.maxBytes,
	}, nil
}

// Fetch navigates to url and returns the rendered document.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*seoaudit.Response, error) {
	if f.closed.Load() {
		return nil, seoaudit.Errorf(seoaudit.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.manager.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	defer page.Close()
	defer f.manager.IncrementPageCount()

	page = page.Context(ctx)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return nil, err
		}
	}
	if err := page.Navigate(url); err != nil {
		return nil, contextErr(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, contextErr(ctx, err)
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}
	if err := checkFinalURL(url, finalURL); err != nil {
		return nil, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, contextErr(ctx, err)
	}
	html = truncateHTML(html, f.maxBytes)

	return &seoaudit.Response{
		URL:         url,
		FinalURL:    finalURL,
		StatusCode:  200,
		ContentType: "text/html",
		IsHTML:      true,
		Body:        html,
	}, nil
}

// Close releases browser resources. It is safe to call more than once.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// checkFinalURL rejects a page whose navigation ended outside the
// registrable domain of the requested URL.
func checkFinalURL(start, final string) error {
	s, err := neturl.Parse(start)
	if err != nil {
		return seoaudit.Errorf(seoaudit.EINVALID, "invalid URL %q", start)
	}
	f, err := neturl.Parse(final)
	if err != nil || (f.Scheme != "http" && f.Scheme != "https") {
		return seoaudit.Errorf(seoaudit.EFORBIDDEN, "%s: navigated to %s", seoaudit.ReasonHostChanged, final)
	}
	if seoaudit.RegistrableDomain(s.Hostname()) != seoaudit.RegistrableDomain(f.Hostname()) {
		return seoaudit.Errorf(seoaudit.EFORBIDDEN, "%s: navigated to %s", seoaudit.ReasonHostChanged, final)
	}
	return nil
}

// truncateHTML cuts s to at most n bytes without splitting a UTF-8
// sequence. n <= 0 means no limit.
func truncateHTML(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// contextErr prefers the context error so callers can tell timeouts and
// cancellation from browser failures.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
