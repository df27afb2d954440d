package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/csv"
	seohttp "github.com/fwojciec/seoaudit/http"
	"github.com/fwojciec/seoaudit/mock"
	"github.com/fwojciec/seoaudit/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps audits and pages in memory.
type memStore struct {
	mu     sync.Mutex
	audits map[string]*seoaudit.Audit
	pages  map[string][]*seoaudit.PageReport
	order  []string
}

func newMemStore() *memStore {
	return &memStore{
		audits: make(map[string]*seoaudit.Audit),
		pages:  make(map[string][]*seoaudit.PageReport),
	}
}

func (m *memStore) put(a *seoaudit.Audit, pages ...*seoaudit.PageReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[a.ID] = a
	m.order = append(m.order, a.ID)
	m.pages[a.ID] = pages
}

func (m *memStore) auditService() *mock.AuditService {
	return &mock.AuditService{
		CreateAuditFn: func(_ context.Context, a *seoaudit.Audit) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			a.ID = "new"
			a.Status = seoaudit.AuditPending
			cp := *a
			m.audits[a.ID] = &cp
			m.order = append(m.order, a.ID)
			return nil
		},
		FindAuditByIDFn: func(_ context.Context, id string) (*seoaudit.Audit, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			a, ok := m.audits[id]
			if !ok {
				return nil, seoaudit.Errorf(seoaudit.ENOTFOUND, "audit not found")
			}
			cp := *a
			return &cp, nil
		},
		FindAuditsFn: func(context.Context, seoaudit.AuditFilter) ([]*seoaudit.Audit, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			var out []*seoaudit.Audit
			for i := len(m.order) - 1; i >= 0; i-- {
				cp := *m.audits[m.order[i]]
				out = append(out, &cp)
			}
			return out, nil
		},
	}
}

func (m *memStore) pageService() *mock.PageService {
	return &mock.PageService{
		FindPagesFn: func(_ context.Context, filter seoaudit.PageFilter) ([]*seoaudit.PageReport, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.pages[*filter.AuditID], nil
		},
	}
}

func newServer(t *testing.T, store *memStore, maxRunning int, run seohttp.RunFunc) (*seohttp.Server, *httptest.Server) {
	t.Helper()

	templates, err := template.New()
	require.NoError(t, err)

	s := seohttp.NewServer(":0", maxRunning)
	s.Audits = store.auditService()
	s.Pages = store.pageService()
	s.Templates = templates
	s.Reports[seoaudit.FormatCSV] = csv.NewRenderer()
	s.Run = run

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func noRedirect() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func completedAudit() *seoaudit.Audit {
	return &seoaudit.Audit{
		ID:        "a1",
		StartURL:  "https://example.com/",
		Status:    seoaudit.AuditCompleted,
		Options:   seoaudit.DefaultAuditOptions(),
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	_, ts := newServer(t, newMemStore(), 1, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))
}

func TestServer_Index(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.put(completedAudit())
	_, ts := newServer(t, store, 1, nil)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)

	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/audits"`)
	assert.Contains(t, body, `href="/audits/a1"`)

	resp, err = http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestServer_CreateAudit(t *testing.T) {
	t.Parallel()

	t.Run("starts an audit from the form and redirects", func(t *testing.T) {
		t.Parallel()

		started := make(chan seoaudit.Audit, 1)
		s, ts := newServer(t, newMemStore(), 1, func(_ context.Context, a *seoaudit.Audit, _ seoaudit.ProgressFunc) error {
			started <- *a
			return nil
		})

		resp, err := noRedirect().PostForm(ts.URL+"/audits", url.Values{
			"start_url":   {" https://example.com/shop#top "},
			"max_pages":   {"50"},
			"delay_ms":    {"500"},
			"scope":       {"host"},
			"use_sitemap": {"1"},
		})
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/audits/new", resp.Header.Get("Location"))

		a := <-started
		s.Wait()
		assert.Equal(t, "https://example.com/shop", a.StartURL)
		assert.Equal(t, 50, a.Options.MaxPages)
		assert.Equal(t, 500*time.Millisecond, a.Options.Delay)
		assert.Equal(t, seoaudit.ScopeHost, a.Options.Scope)
		assert.False(t, a.Options.RespectRobots)
		assert.True(t, a.Options.UseSitemap)
		assert.Equal(t, 5, a.Options.MaxDepth)
	})

	t.Run("re-renders the form on invalid input", func(t *testing.T) {
		t.Parallel()

		_, ts := newServer(t, newMemStore(), 1, nil)

		resp, err := http.PostForm(ts.URL+"/audits", url.Values{
			"start_url": {"ftp://example.com"},
		})
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "start URL must start with http:// or https://")
		assert.Contains(t, body, `value="ftp://example.com"`)
	})

	t.Run("rejects non-numeric fields", func(t *testing.T) {
		t.Parallel()

		_, ts := newServer(t, newMemStore(), 1, nil)

		resp, err := http.PostForm(ts.URL+"/audits", url.Values{
			"start_url": {"https://example.com/"},
			"max_depth": {"deep"},
		})
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "max depth must be a number")
	})

	t.Run("accepts JSON and keeps omitted defaults", func(t *testing.T) {
		t.Parallel()

		started := make(chan seoaudit.Audit, 1)
		s, ts := newServer(t, newMemStore(), 1, func(_ context.Context, a *seoaudit.Audit, _ seoaudit.ProgressFunc) error {
			started <- *a
			return nil
		})

		resp, err := http.Post(ts.URL+"/audits", "application/json",
			strings.NewReader(`{"startUrl":"https://example.com/","options":{"maxPages":30}}`))
		require.NoError(t, err)

		var got seoaudit.Audit
		require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &got))
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, "new", got.ID)

		a := <-started
		s.Wait()
		assert.Equal(t, 30, a.Options.MaxPages)
		assert.Equal(t, 8, a.Options.Concurrency)
		assert.True(t, a.Options.RespectRobots)
	})

	t.Run("refuses advice when no advisor is configured", func(t *testing.T) {
		t.Parallel()

		_, ts := newServer(t, newMemStore(), 1, nil)

		resp, err := http.Post(ts.URL+"/audits", "application/json",
			strings.NewReader(`{"startUrl":"https://example.com/","options":{"advisePages":3}}`))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error":"AI advice is not configured on this server"}`, readBody(t, resp))
	})

	t.Run("returns 503 when all slots are busy", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		s, ts := newServer(t, newMemStore(), 1, func(context.Context, *seoaudit.Audit, seoaudit.ProgressFunc) error {
			<-release
			return nil
		})

		post := func() *http.Response {
			resp, err := http.Post(ts.URL+"/audits", "application/json",
				strings.NewReader(`{"startUrl":"https://example.com/"}`))
			require.NoError(t, err)
			return resp
		}

		first := post()
		_ = first.Body.Close()
		second := post()

		assert.Equal(t, http.StatusAccepted, first.StatusCode)
		assert.Equal(t, http.StatusServiceUnavailable, second.StatusCode)
		assert.Contains(t, readBody(t, second), "too many audits running")

		close(release)
		s.Wait()
	})
}

func TestServer_Audit(t *testing.T) {
	t.Parallel()

	t.Run("shows a completed audit with downloads", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		store.put(completedAudit(), &seoaudit.PageReport{URL: "https://example.com/", Status: 200, IsHTML: true, H1Count: 1})
		_, ts := newServer(t, store, 1, nil)

		resp, err := http.Get(ts.URL + "/audits/a1")
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `href="/audits/a1/report.csv"`)
		assert.NotContains(t, body, "report.html")
		assert.NotContains(t, body, `http-equiv="refresh"`)
	})

	t.Run("refreshes a running audit", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		a := completedAudit()
		a.Status = seoaudit.AuditRunning
		store.put(a)
		_, ts := newServer(t, store, 1, nil)

		resp, err := http.Get(ts.URL + "/audits/a1")
		require.NoError(t, err)

		assert.Contains(t, readBody(t, resp), `http-equiv="refresh"`)
	})

	t.Run("returns 404 for unknown audits", func(t *testing.T) {
		t.Parallel()

		_, ts := newServer(t, newMemStore(), 1, nil)

		resp, err := http.Get(ts.URL + "/audits/missing")
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "audit not found\n", readBody(t, resp))
	})
}

func TestServer_Report(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.put(completedAudit(), &seoaudit.PageReport{URL: "https://example.com/", Status: 200})
	running := completedAudit()
	running.ID = "a2"
	running.Status = seoaudit.AuditRunning
	store.put(running)
	_, ts := newServer(t, store, 1, nil)

	t.Run("downloads a CSV report", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(ts.URL + "/audits/a1/report.csv")
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
		assert.Equal(t, "attachment; filename=seoaudit-a1.csv", resp.Header.Get("Content-Disposition"))
		assert.True(t, strings.HasPrefix(body, strings.Join(csv.Header, ",")))
	})

	t.Run("returns 404 for unavailable formats", func(t *testing.T) {
		t.Parallel()

		for _, file := range []string{"report.pdf", "report.md", "summary.csv"} {
			resp, err := http.Get(ts.URL + "/audits/a1/" + file)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, file)
		}
	})

	t.Run("returns 409 while the audit runs", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(ts.URL + "/audits/a2/report.csv")
		require.NoError(t, err)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "audit is still running")
	})
}

func TestServer_APIAudit(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.put(completedAudit(),
		&seoaudit.PageReport{URL: "https://example.com/", Status: 200, IsHTML: true, H1Count: 0, Text: "secret body"},
	)
	_, ts := newServer(t, store, 1, nil)

	resp, err := http.Get(ts.URL + "/api/audits/a1")
	require.NoError(t, err)
	body := readBody(t, resp)

	var got struct {
		Audit   seoaudit.Audit `json:"audit"`
		Summary struct {
			Total  int                  `json:"total"`
			Issues []seoaudit.IssueList `json:"issues"`
		} `json:"summary"`
		Pages []seoaudit.PageReport `json:"pages"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "a1", got.Audit.ID)
	assert.Equal(t, 1, got.Summary.Total)
	assert.Len(t, got.Summary.Issues, 7)
	assert.Equal(t, "h1", got.Summary.Issues[3].Key)
	assert.Len(t, got.Summary.Issues[3].Rows, 1)
	require.Len(t, got.Pages, 1)
	assert.NotContains(t, body, "secret body")

	resp, err = http.Get(ts.URL + "/api/audits/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"audit not found"}`, readBody(t, resp))
}

func TestServer_Shutdown(t *testing.T) {
	t.Parallel()

	running := make(chan struct{})
	var canceled bool
	s, ts := newServer(t, newMemStore(), 1, func(ctx context.Context, _ *seoaudit.Audit, _ seoaudit.ProgressFunc) error {
		close(running)
		<-ctx.Done()
		canceled = true
		return ctx.Err()
	})

	resp, err := http.Post(ts.URL+"/audits", "application/json",
		strings.NewReader(`{"startUrl":"https://example.com/"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	<-running

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.Shutdown(ctx)

	require.NoError(t, err)
	assert.True(t, canceled)
}

func TestErrorStatusCode(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		seoaudit.EINVALID:     http.StatusBadRequest,
		seoaudit.ENOTFOUND:    http.StatusNotFound,
		seoaudit.ECONFLICT:    http.StatusConflict,
		seoaudit.EFORBIDDEN:   http.StatusForbidden,
		seoaudit.EUNAVAILABLE: http.StatusServiceUnavailable,
		seoaudit.EINTERNAL:    http.StatusInternalServerError,
		"bogus":               http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, seohttp.ErrorStatusCode(code), code)
	}
}
