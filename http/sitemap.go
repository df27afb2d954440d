package http

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/seoaudit"
	"github.com/temoto/robotstxt"
)

// MaxSitemapURLs caps the number of URLs collected from sitemaps.
const MaxSitemapURLs = 50000

// maxSitemapBytes caps the size of a single sitemap document.
const maxSitemapBytes = 10 << 20

// Ensure SitemapService implements seoaudit.SitemapService.
var _ seoaudit.SitemapService = (*SitemapService)(nil)

// SitemapService discovers URLs from website sitemaps via HTTP.
type SitemapService struct {
	client    *http.Client
	userAgent string
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client, userAgent string) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = seoaudit.DefaultUserAgent
	}
	return &SitemapService{client: client, userAgent: userAgent}
}

// DiscoverURLs finds URLs from a site's sitemaps. Only URLs on the same
// registrable domain as baseURL are returned, and when baseURL has a
// non-root path only URLs below that path.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *seoaudit.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, seoaudit.Errorf(seoaudit.EINVALID, "invalid base URL %q", baseURL)
	}

	prefix := strings.TrimSuffix(base.Path, "/")
	root := &url.URL{Scheme: base.Scheme, Host: base.Host}

	sitemaps, err := s.findSitemaps(ctx, root)
	if err != nil {
		return nil, err
	}

	w := &sitemapWalk{svc: s, seen: make(map[string]bool), found: make(map[string]bool)}
	for _, sm := range sitemaps {
		if err := w.visit(ctx, sm); err != nil {
			return nil, err
		}
	}

	out := []string{}
	domain := seoaudit.RegistrableDomain(base.Hostname())
	for _, raw := range w.urls {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		if seoaudit.RegistrableDomain(u.Hostname()) != domain {
			continue
		}
		if prefix != "" && u.Path != prefix && !strings.HasPrefix(u.Path, prefix+"/") {
			continue
		}
		if !filter.Match(raw) {
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// findSitemaps reads Sitemap directives from robots.txt and falls back to
// /sitemap.xml when there are none.
func (s *SitemapService) findSitemaps(ctx context.Context, root *url.URL) ([]string, error) {
	robotsURL := root.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	body, status, err := s.get(ctx, robotsURL)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err == nil && status == http.StatusOK {
		if data, perr := robotstxt.FromStatusAndBytes(status, body); perr == nil && len(data.Sitemaps) > 0 {
			return data.Sitemaps, nil
		}
	}
	return []string{root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()}, nil
}

type sitemapWalk struct {
	svc   *SitemapService
	seen  map[string]bool
	found map[string]bool
	urls  []string
}

// visit fetches one sitemap and follows nested sitemap indexes.
// Missing sitemaps are skipped.
func (w *sitemapWalk) visit(ctx context.Context, sitemapURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.seen[sitemapURL] || len(w.urls) >= MaxSitemapURLs {
		return nil
	}
	w.seen[sitemapURL] = true

	body, status, err := w.svc.get(ctx, sitemapURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	if status != http.StatusOK {
		return nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return nil
	}

	if root.Tag == "sitemapindex" {
		for _, sm := range root.SelectElements("sitemap") {
			if loc := locText(sm); loc != "" {
				if err := w.visit(ctx, loc); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, el := range root.SelectElements("url") {
		loc := locText(el)
		if loc == "" || w.found[loc] {
			continue
		}
		if len(w.urls) >= MaxSitemapURLs {
			break
		}
		w.found[loc] = true
		w.urls = append(w.urls, loc)
	}
	return nil
}

func locText(el *etree.Element) string {
	loc := el.SelectElement("loc")
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(loc.Text())
}

// get fetches a URL, transparently decompressing gzipped sitemaps.
func (s *SitemapService) get(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var r io.Reader = io.LimitReader(resp.Body, maxSitemapBytes)
	if strings.HasSuffix(strings.ToLower(req.URL.Path), ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, resp.StatusCode, fmt.Errorf("opening gzip sitemap: %w", err)
		}
		defer gz.Close()
		r = io.LimitReader(gz, maxSitemapBytes)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
