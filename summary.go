package seoaudit

import (
	"fmt"
	"sort"
	"strconv"
)

// MissingAltThreshold is the share of images without alt text above which
// a page is reported.
const MissingAltThreshold = 0.3

// DuplicateGroup lists URLs sharing the same title or content.
type DuplicateGroup struct {
	Key  string   `json:"key"`
	URLs []string `json:"urls"`
}

// Summary aggregates site-wide issues across all audited pages.
type Summary struct {
	Total      int `json:"total"`
	OK         int `json:"ok"`
	Redirected int `json:"redirected"`
	Errors     int `json:"errors"`

	TitleIssues       []*PageReport `json:"titleIssues"`
	DescriptionIssues []*PageReport `json:"descriptionIssues"`
	Noindex           []*PageReport `json:"noindex"`
	H1Anomalies       []*PageReport `json:"h1Anomalies"`
	MissingAlt        []*PageReport `json:"missingAlt"`
	ThinContent       []*PageReport `json:"thinContent"`
	BrokenLinks       []*PageReport `json:"brokenLinks"`

	DuplicateTitles  []DuplicateGroup `json:"duplicateTitles"`
	DuplicateContent []DuplicateGroup `json:"duplicateContent"`

	AvgSEOScore float64 `json:"avgSeoScore"`
	AvgUXScore  float64 `json:"avgUxScore"`
}

// Summarize computes the site-wide summary for pages. Pages with fewer than
// thinWords words are reported as thin content.
func Summarize(pages []*PageReport, thinWords int) Summary {
	s := Summary{Total: len(pages)}

	titles := make(map[string][]string)
	hashes := make(map[string][]string)
	var seo, ux, scored int

	for _, p := range pages {
		if p.Status == 200 {
			s.OK++
		}
		if p.Redirects > 0 {
			s.Redirected++
		}
		if p.Status >= 400 {
			s.Errors++
		}
		if !p.IsHTML {
			continue
		}

		scored++
		seo += p.Metrics.SEOScore
		ux += p.Metrics.UXScore

		if p.TitleIssue != "" {
			s.TitleIssues = append(s.TitleIssues, p)
		}
		if p.DescriptionIssue != "" {
			s.DescriptionIssues = append(s.DescriptionIssues, p)
		}
		if !p.Indexable() {
			s.Noindex = append(s.Noindex, p)
		}
		if p.H1Count != 1 {
			s.H1Anomalies = append(s.H1Anomalies, p)
		}
		if p.Images > 0 && float64(p.ImagesMissingAlt)/float64(p.Images) > MissingAltThreshold {
			s.MissingAlt = append(s.MissingAlt, p)
		}
		if p.WordCount < thinWords {
			s.ThinContent = append(s.ThinContent, p)
		}
		if p.BrokenInternalLinks > 0 {
			s.BrokenLinks = append(s.BrokenLinks, p)
		}
		if p.Title != "" {
			titles[p.Title] = append(titles[p.Title], p.URL)
		}
		if p.ContentHash != "" {
			hashes[p.ContentHash] = append(hashes[p.ContentHash], p.URL)
		}
	}

	s.DuplicateTitles = duplicateGroups(titles)
	s.DuplicateContent = duplicateGroups(hashes)

	if scored > 0 {
		s.AvgSEOScore = float64(seo) / float64(scored)
		s.AvgUXScore = float64(ux) / float64(scored)
	}
	return s
}

// duplicateGroups returns keys used more than once, largest group first.
func duplicateGroups(m map[string][]string) []DuplicateGroup {
	var groups []DuplicateGroup
	for k, urls := range m {
		if len(urls) > 1 {
			groups = append(groups, DuplicateGroup{Key: k, URLs: urls})
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].URLs) != len(groups[j].URLs) {
			return len(groups[i].URLs) > len(groups[j].URLs)
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// IssueRow is a single page in an issue list.
type IssueRow struct {
	URL    string `json:"url"`
	Detail string `json:"detail"`
}

// IssueList groups the pages sharing one kind of issue.
type IssueList struct {
	Key    string     `json:"key"`
	Title  string     `json:"title"`
	Column string     `json:"column"`
	Rows   []IssueRow `json:"rows"`
}

// IssueLists returns the per-issue page lists in display order. Lists
// without pages are included so every category is always shown.
func (s Summary) IssueLists() []IssueList {
	list := func(key, title, column string, pages []*PageReport, detail func(*PageReport) string) IssueList {
		l := IssueList{Key: key, Title: title, Column: column}
		for _, p := range pages {
			l.Rows = append(l.Rows, IssueRow{URL: p.URL, Detail: detail(p)})
		}
		return l
	}
	return []IssueList{
		list("title", "Title issues", "Issue", s.TitleIssues, func(p *PageReport) string { return p.TitleIssue }),
		list("description", "Description issues", "Issue", s.DescriptionIssues, func(p *PageReport) string { return p.DescriptionIssue }),
		list("noindex", "Noindex", "Robots", s.Noindex, func(p *PageReport) string {
			if p.RobotsMeta == "" && p.XNoindex {
				return "X-Robots-Tag"
			}
			return p.RobotsMeta
		}),
		list("h1", "H1 anomalies", "H1 count", s.H1Anomalies, func(p *PageReport) string { return strconv.Itoa(p.H1Count) }),
		list("alt", "Missing alt text", "Missing / images", s.MissingAlt, func(p *PageReport) string {
			return fmt.Sprintf("%d / %d", p.ImagesMissingAlt, p.Images)
		}),
		list("thin", "Thin content", "Words", s.ThinContent, func(p *PageReport) string { return strconv.Itoa(p.WordCount) }),
		list("broken", "Broken internal links", "Broken", s.BrokenLinks, func(p *PageReport) string { return strconv.Itoa(p.BrokenInternalLinks) }),
	}
}
