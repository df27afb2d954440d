package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/crawl"
)

// printSummary writes the site-wide issue counts and crawl failures.
func printSummary(w io.Writer, report *seoaudit.Report) {
	s := report.Summary
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Pages\t%d\n", s.Total)
	fmt.Fprintf(tw, "200 OK\t%d\n", s.OK)
	fmt.Fprintf(tw, "Redirected\t%d\n", s.Redirected)
	fmt.Fprintf(tw, "Errors (4xx/5xx)\t%d\n", s.Errors)
	for _, l := range s.IssueLists() {
		fmt.Fprintf(tw, "%s\t%d\n", l.Title, len(l.Rows))
	}
	fmt.Fprintf(tw, "Duplicate titles\t%d\n", len(s.DuplicateTitles))
	fmt.Fprintf(tw, "Duplicate content\t%d\n", len(s.DuplicateContent))
	fmt.Fprintf(tw, "Average SEO score\t%s\n", crawl.FormatScore(int(math.Round(s.AvgSEOScore))))
	fmt.Fprintf(tw, "Average UX score\t%s\n", crawl.FormatScore(int(math.Round(s.AvgUXScore))))
	fmt.Fprintf(tw, "Content tokens\t%s\n", crawl.FormatTokens(totalTokens(report.Pages)))
	_ = tw.Flush()

	if a := report.Audit; a != nil && a.Stats.RobotsDenied+a.Stats.Blocked+a.Stats.FetchErrors > 0 {
		fmt.Fprintf(w, "\nRobots denied: %d, blocked: %d, fetch errors: %d\n",
			a.Stats.RobotsDenied, a.Stats.Blocked, a.Stats.FetchErrors)
		for _, f := range a.Stats.FailSamples {
			fmt.Fprintf(w, "  %s: %s\n", f.URL, f.Reason)
		}
	}
}

// printPages writes one line per page.
func printPages(w io.Writer, pages []*seoaudit.PageReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tDEPTH\tSEO\tUX\tWORDS\tURL\tISSUES")
	for _, p := range pages {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			p.Status, p.Depth, p.Metrics.SEOScore, p.Metrics.UXScore, p.WordCount, p.URL, pageIssues(p))
	}
	_ = tw.Flush()
}

func pageIssues(p *seoaudit.PageReport) string {
	if p.FetchError != "" {
		return p.FetchError
	}
	var issues []string
	if p.TitleIssue != "" {
		issues = append(issues, p.TitleIssue)
	}
	if p.DescriptionIssue != "" {
		issues = append(issues, p.DescriptionIssue)
	}
	if !p.Indexable() {
		issues = append(issues, "noindex")
	}
	if p.IsHTML && p.H1Count != 1 {
		issues = append(issues, fmt.Sprintf("%d h1", p.H1Count))
	}
	if p.BrokenInternalLinks > 0 {
		issues = append(issues, fmt.Sprintf("%d broken links", p.BrokenInternalLinks))
	}
	return strings.Join(issues, ", ")
}

func totalTokens(pages []*seoaudit.PageReport) int {
	n := 0
	for _, p := range pages {
		n += p.Tokens
	}
	return n
}
