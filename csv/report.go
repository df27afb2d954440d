// Package csv renders audit reports as CSV.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fwojciec/seoaudit"
)

// Ensure Renderer implements seoaudit.ReportRenderer.
var _ seoaudit.ReportRenderer = (*Renderer)(nil)

// Header is the column order of the page table.
var Header = []string{
	"url", "status", "depth", "final_url", "redirected",
	"canonical", "canonical_status", "robots_meta",
	"noindex", "nofollow", "x_noindex", "x_nofollow",
	"title", "title_issue", "description", "desc_issue",
	"h1_count", "images", "images_missing_alt",
	"internal_links", "external_links", "broken_internal_links", "word_count",
	"seo_score", "ux_score", "tokens", "fetch_error",
}

// Renderer writes one row per page.
type Renderer struct{}

// NewRenderer creates a CSV renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render writes the header and a row for every page in crawl order.
func (r *Renderer) Render(w io.Writer, report *seoaudit.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range report.Pages {
		if err := cw.Write(Row(p)); err != nil {
			return fmt.Errorf("write row %s: %w", p.URL, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row returns the CSV fields for p in Header order.
func Row(p *seoaudit.PageReport) []string {
	return []string{
		p.URL,
		strconv.Itoa(p.Status),
		strconv.Itoa(p.Depth),
		p.FinalURL,
		strconv.Itoa(p.Redirects),
		p.Canonical,
		p.CanonicalStatus,
		p.RobotsMeta,
		strconv.FormatBool(p.Noindex),
		strconv.FormatBool(p.Nofollow),
		strconv.FormatBool(p.XNoindex),
		strconv.FormatBool(p.XNofollow),
		p.Title,
		p.TitleIssue,
		p.Description,
		p.DescriptionIssue,
		strconv.Itoa(p.H1Count),
		strconv.Itoa(p.Images),
		strconv.Itoa(p.ImagesMissingAlt),
		strconv.Itoa(p.InternalLinks),
		strconv.Itoa(p.ExternalLinks),
		strconv.Itoa(p.BrokenInternalLinks),
		strconv.Itoa(p.WordCount),
		strconv.Itoa(p.Metrics.SEOScore),
		strconv.Itoa(p.Metrics.UXScore),
		strconv.Itoa(p.Tokens),
		p.FetchError,
	}
}
