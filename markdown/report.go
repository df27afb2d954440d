// Package markdown renders audit reports as Markdown.
package markdown

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/seoaudit"
	"github.com/nao1215/markdown"
)

// Ensure Renderer implements seoaudit.ReportRenderer.
var _ seoaudit.ReportRenderer = (*Renderer)(nil)

// maxCell caps the length of free-text table cells.
const maxCell = 80

// Renderer writes a summary table, one section per issue type and the full
// pages table.
type Renderer struct{}

// NewRenderer creates a Markdown renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render writes report to w.
func (r *Renderer) Render(w io.Writer, report *seoaudit.Report) error {
	md := markdown.NewMarkdown(w)

	writeHeader(md, report)
	writeSummary(md, report.Summary)
	writeIssues(md, report.Summary)
	writeDuplicates(md, report.Summary)
	writeAdvice(md, report.Pages)
	writePages(md, report.Pages)

	if err := md.Build(); err != nil {
		return fmt.Errorf("build markdown: %w", err)
	}
	return nil
}

func writeHeader(md *markdown.Markdown, report *seoaudit.Report) {
	md.H1("SEO Audit Report")
	md.PlainText("")

	rows := [][]string{}
	if a := report.Audit; a != nil {
		rows = append(rows,
			[]string{"Start URL", cell(a.StartURL)},
			[]string{"Status", string(a.Status)},
			[]string{"Created", a.CreatedAt.UTC().Format(time.RFC3339)},
			[]string{"Pages crawled", strconv.Itoa(a.Stats.Crawled)},
			[]string{"Robots denied", strconv.Itoa(a.Stats.RobotsDenied)},
		)
		if a.Error != "" {
			rows = append(rows, []string{"Error", cell(a.Error)})
		}
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
}

func writeSummary(md *markdown.Markdown, s seoaudit.Summary) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Pages", strconv.Itoa(s.Total)},
			{"200 OK", strconv.Itoa(s.OK)},
			{"Redirected", strconv.Itoa(s.Redirected)},
			{"Errors (4xx/5xx)", strconv.Itoa(s.Errors)},
			{"Title issues", strconv.Itoa(len(s.TitleIssues))},
			{"Description issues", strconv.Itoa(len(s.DescriptionIssues))},
			{"Noindex", strconv.Itoa(len(s.Noindex))},
			{"H1 anomalies", strconv.Itoa(len(s.H1Anomalies))},
			{"Missing alt", strconv.Itoa(len(s.MissingAlt))},
			{"Thin content", strconv.Itoa(len(s.ThinContent))},
			{"Broken internal links", strconv.Itoa(len(s.BrokenLinks))},
			{"Duplicate titles", strconv.Itoa(len(s.DuplicateTitles))},
			{"Duplicate content", strconv.Itoa(len(s.DuplicateContent))},
			{"Average SEO score", strconv.FormatFloat(s.AvgSEOScore, 'f', 1, 64)},
			{"Average UX score", strconv.FormatFloat(s.AvgUXScore, 'f', 1, 64)},
		},
	})
	md.PlainText("")
}

func writeIssues(md *markdown.Markdown, s seoaudit.Summary) {
	md.H2("Issues")
	md.PlainText("")
	for _, l := range s.IssueLists() {
		md.H3(fmt.Sprintf("%s (%d)", l.Title, len(l.Rows)))
		md.PlainText("")
		if len(l.Rows) == 0 {
			md.PlainText("None.")
			md.PlainText("")
			continue
		}
		rows := make([][]string, len(l.Rows))
		for i, r := range l.Rows {
			rows[i] = []string{cell(r.URL), cell(r.Detail)}
		}
		md.Table(markdown.TableSet{Header: []string{"URL", l.Column}, Rows: rows})
		md.PlainText("")
	}
}

func writeDuplicates(md *markdown.Markdown, s seoaudit.Summary) {
	if len(s.DuplicateTitles) == 0 && len(s.DuplicateContent) == 0 {
		return
	}
	md.H2("Duplicates")
	md.PlainText("")
	for _, g := range s.DuplicateTitles {
		md.PlainTextf("Title %s:", markdown.Bold(cell(g.Key)))
		md.BulletList(g.URLs...)
		md.PlainText("")
	}
	for _, g := range s.DuplicateContent {
		md.PlainTextf("Content %s:", markdown.Code(g.Key))
		md.BulletList(g.URLs...)
		md.PlainText("")
	}
}

func writeAdvice(md *markdown.Markdown, pages []*seoaudit.PageReport) {
	var advised []*seoaudit.PageReport
	for _, p := range pages {
		if p.Advice != nil || p.AdviceError != "" {
			advised = append(advised, p)
		}
	}
	if len(advised) == 0 {
		return
	}
	md.H2("AI advice")
	md.PlainText("")
	for _, p := range advised {
		md.H3(p.URL)
		md.PlainText("")
		if p.Advice == nil {
			md.Warningf("Advice failed: %s", p.AdviceError)
			md.PlainText("")
			continue
		}
		if p.Advice.Summary != "" {
			md.PlainText(p.Advice.Summary)
			md.PlainText("")
		}
		if len(p.Advice.TopIssues) > 0 {
			md.PlainText(markdown.Bold("Top issues"))
			md.BulletList(p.Advice.TopIssues...)
			md.PlainText("")
		}
		if len(p.Advice.Recommendations) > 0 {
			md.PlainText(markdown.Bold("Recommendations"))
			md.OrderedList(p.Advice.Recommendations...)
			md.PlainText("")
		}
	}
}

func writePages(md *markdown.Markdown, pages []*seoaudit.PageReport) {
	md.H2("Pages")
	md.PlainText("")
	rows := make([][]string, len(pages))
	for i, p := range pages {
		rows[i] = []string{
			cell(p.URL),
			strconv.Itoa(p.Status),
			strconv.Itoa(p.Depth),
			cell(p.Title),
			strconv.Itoa(p.WordCount),
			strconv.Itoa(p.Metrics.SEOScore),
			strconv.Itoa(p.Metrics.UXScore),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Depth", "Title", "Words", "SEO", "UX"},
		Rows:   rows,
	})
}

// cell makes s safe for a single table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	if r := []rune(s); len(r) > maxCell {
		s = string(r[:maxCell-1]) + "…"
	}
	return s
}
