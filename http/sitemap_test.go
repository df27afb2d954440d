package http_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/seoaudit"
	seohttp "github.com/fwojciec/seoaudit/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const urlsetTmpl = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">%s</urlset>`

func urlset(locs ...string) string {
	var sb strings.Builder
	for _, l := range locs {
		sb.WriteString("<url><loc>" + l + "</loc></url>")
	}
	return strings.Replace(urlsetTmpl, "%s", sb.String(), 1)
}

func TestSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("reads sitemaps listed in robots.txt", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/robots.txt":   "User-agent: *\nDisallow: /private/\nSitemap: {{BASE}}/sitemap1.xml\nSitemap: {{BASE}}/sitemap2.xml\n",
			"/sitemap1.xml": urlset("{{BASE}}/page1", "{{BASE}}/page2"),
			"/sitemap2.xml": urlset("{{BASE}}/page2", "{{BASE}}/page3"),
		})
		defer srv.Close()

		svc := seohttp.NewSitemapService(srv.Client(), "")
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/page1", srv.URL + "/page2", srv.URL + "/page3"}, urls)
	})

	t.Run("falls back to sitemap.xml", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/page1"),
		})
		defer srv.Close()

		svc := seohttp.NewSitemapService(srv.Client(), "")
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/page1"}, urls)
	})

	t.Run("follows sitemap indexes", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-docs.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-docs.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-missing.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-api.xml</loc></sitemap>
</sitemapindex>`,
			"/sitemap-docs.xml": urlset("{{BASE}}/docs/intro"),
			"/sitemap-api.xml":  urlset("{{BASE}}/api/reference"),
		})
		defer srv.Close()

		svc := seohttp.NewSitemapService(srv.Client(), "")
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{srv.URL + "/docs/intro", srv.URL + "/api/reference"}, urls)
	})

	t.Run("applies path prefix, domain and filter", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset(
				"{{BASE}}/docs/intro",
				"{{BASE}}/docs/internal/debug",
				"{{BASE}}/documentation",
				"{{BASE}}/blog/post",
				"https://other.example.org/docs/x",
			),
		})
		defer srv.Close()

		filter, err := seoaudit.NewURLFilter("", "/internal/")
		require.NoError(t, err)

		svc := seohttp.NewSitemapService(srv.Client(), "")
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL+"/docs/", filter)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/docs/intro"}, urls)
	})

	t.Run("decompresses gzipped sitemaps", func(t *testing.T) {
		t.Parallel()

		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/robots.txt":
				_, _ = w.Write([]byte("Sitemap: " + srv.URL + "/sitemap.xml.gz\n"))
			case "/sitemap.xml.gz":
				var buf bytes.Buffer
				gz := gzip.NewWriter(&buf)
				_, _ = gz.Write([]byte(urlset(srv.URL + "/zipped")))
				_ = gz.Close()
				w.Header().Set("Content-Type", "application/gzip")
				_, _ = w.Write(buf.Bytes())
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		svc := seohttp.NewSitemapService(srv.Client(), "")
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/zipped"}, urls)
	})

	t.Run("no sitemap found", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{})
		defer srv.Close()

		svc := seohttp.NewSitemapService(srv.Client(), "")
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Empty(t, urls)
	})

	t.Run("context cancellation", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{"/sitemap.xml": urlset("{{BASE}}/page1")})
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		svc := seohttp.NewSitemapService(srv.Client(), "")
		_, err := svc.DiscoverURLs(ctx, srv.URL, nil)

		require.ErrorIs(t, err, context.Canceled)
	})
}

// newTestServer creates a test HTTP server with the given path->content mapping.
// Content strings may contain {{BASE}} which is replaced with the server URL.
func newTestServer(t *testing.T, content map[string]string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := content[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body = strings.ReplaceAll(body, "{{BASE}}", srv.URL)

		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
		} else {
			w.Header().Set("Content-Type", "application/xml")
		}
		_, _ = w.Write([]byte(body))
	}))

	return srv
}
