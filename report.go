package seoaudit

import (
	"context"
	"io"
	"strings"
)

// ReportFormat names an export format.
type ReportFormat string

// Supported report formats.
const (
	FormatCSV      ReportFormat = "csv"
	FormatHTML     ReportFormat = "html"
	FormatMarkdown ReportFormat = "md"
)

// ReportFormats lists every supported format.
var ReportFormats = []ReportFormat{FormatCSV, FormatHTML, FormatMarkdown}

// ContentType returns the MIME type of the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	}
	return "application/octet-stream"
}

// ParseReportFormat parses a single format name. "markdown" is accepted
// for "md".
func ParseReportFormat(s string) (ReportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "html":
		return FormatHTML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", Errorf(EINVALID, "unknown report format %q", s)
}

// ParseReportFormats parses a comma separated format list, dropping
// duplicates.
func ParseReportFormats(s string) ([]ReportFormat, error) {
	var out []ReportFormat
	seen := make(map[ReportFormat]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseReportFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, Errorf(EINVALID, "at least one report format required")
	}
	return out, nil
}

// Report is everything a report renderer needs.
type Report struct {
	Audit   *Audit
	Pages   []*PageReport
	Summary Summary
}

// NewReport builds a report for audit and its pages.
func NewReport(audit *Audit, pages []*PageReport) *Report {
	return &Report{
		Audit:   audit,
		Pages:   pages,
		Summary: Summarize(pages, audit.Options.ThinWords),
	}
}

// ReportRenderer writes a report in one format.
type ReportRenderer interface {
	Render(w io.Writer, r *Report) error
}

// ReportStore persists rendered reports.
type ReportStore interface {
	// Save writes a report file named name and returns its path.
	Save(ctx context.Context, name string, render func(io.Writer) error) (string, error)
}
