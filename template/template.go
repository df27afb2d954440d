// Package template renders the HTML report and the web UI pages from
// embedded html/template files.
package template

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/fwojciec/seoaudit"
)

//go:embed templates/*.html
var files embed.FS

// Ensure Renderer implements seoaudit.ReportRenderer.
var _ seoaudit.ReportRenderer = (*Renderer)(nil)

// Page names.
const (
	pageReport = "report.html"
	pageIndex  = "index.html"
	pageAudit  = "audit.html"
)

// IndexPage is the data for the start page.
type IndexPage struct {
	Options  seoaudit.AuditOptions
	StartURL string
	Audits   []*seoaudit.Audit
	Error    string

	// AdviceEnabled is false when no advisor is configured.
	AdviceEnabled bool
}

// AuditPage is the data for a single audit.
type AuditPage struct {
	Report  *seoaudit.Report
	Formats []seoaudit.ReportFormat

	// Progress is the latest event of a running audit, if known.
	Progress *seoaudit.Progress

	// Refresh reloads the page after that many seconds; zero disables it.
	Refresh int
}

// view wraps page data with what the layout needs.
type view struct {
	Title   string
	Refresh int
	Data    any
}

// Renderer holds the parsed templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	base, err := template.New("").Funcs(funcs).ParseFS(files, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{pageReport, pageIndex, pageAudit} {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		t, err := clone.ParseFS(files, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes a self-contained HTML report.
func (r *Renderer) Render(w io.Writer, report *seoaudit.Report) error {
	return r.execute(w, pageReport, view{Title: "SEO audit " + startURL(report), Data: report})
}

// RenderIndex writes the start page with the audit form.
func (r *Renderer) RenderIndex(w io.Writer, page IndexPage) error {
	return r.execute(w, pageIndex, view{Title: "SEO audit", Data: page})
}

// RenderAudit writes the page for a single audit.
func (r *Renderer) RenderAudit(w io.Writer, page AuditPage) error {
	return r.execute(w, pageAudit, view{Title: "SEO audit " + startURL(page.Report), Refresh: page.Refresh, Data: page})
}

// execute renders into a buffer first so a failing template never leaves
// a half written page behind.
func (r *Renderer) execute(w io.Writer, name string, v view) error {
	var buf bytes.Buffer
	if err := r.pages[name].ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func startURL(report *seoaudit.Report) string {
	if report == nil || report.Audit == nil {
		return ""
	}
	return report.Audit.StartURL
}

var funcs = template.FuncMap{
	"scoreClass": func(score int) string {
		switch {
		case score >= 70:
			return "good"
		case score >= 40:
			return "warn"
		}
		return "bad"
	},
	"statusClass": func(status int) string {
		switch {
		case status == 0 || status >= 400:
			return "bad"
		case status >= 300:
			return "warn"
		}
		return "good"
	},
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
	"fmtFloat": func(f float64) string {
		return fmt.Sprintf("%.1f", f)
	},
	"ms": func(d time.Duration) int64 {
		return d.Milliseconds()
	},
	"scopes": func() []seoaudit.Scope {
		return []seoaudit.Scope{seoaudit.ScopeRegistrable, seoaudit.ScopeHost}
	},
	"advised": func(pages []*seoaudit.PageReport) []*seoaudit.PageReport {
		var out []*seoaudit.PageReport
		for _, p := range pages {
			if p.Advice != nil || p.AdviceError != "" {
				out = append(out, p)
			}
		}
		return out
	},
}
