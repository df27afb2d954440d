package seoaudit

import (
	"context"
	"time"
)

// Canonical statuses.
const (
	CanonicalOK      = "OK"
	CanonicalOther   = "not self-referencing"
	CanonicalMissing = "missing"
)

// IssueUnreachable marks a row whose URL could not be fetched as HTML.
const IssueUnreachable = "non-HTML or unreachable"

// PageReport is the audit row for a single crawled URL.
type PageReport struct {
	ID       string `json:"id"`
	AuditID  string `json:"auditId"`
	Position int    `json:"position"`

	URL                 string `json:"url"`
	Status              int    `json:"status"`
	Depth               int    `json:"depth"`
	FinalURL            string `json:"finalUrl"`
	Redirects           int    `json:"redirects"`
	Canonical           string `json:"canonical"`
	CanonicalStatus     string `json:"canonicalStatus"`
	RobotsMeta          string `json:"robotsMeta"`
	Noindex             bool   `json:"noindex"`
	Nofollow            bool   `json:"nofollow"`
	XNoindex            bool   `json:"xNoindex"`
	XNofollow           bool   `json:"xNofollow"`
	Title               string `json:"title"`
	TitleIssue          string `json:"titleIssue"`
	Description         string `json:"description"`
	DescriptionIssue    string `json:"descriptionIssue"`
	H1Count             int    `json:"h1Count"`
	Images              int    `json:"images"`
	ImagesMissingAlt    int    `json:"imagesMissingAlt"`
	InternalLinks       int    `json:"internalLinks"`
	ExternalLinks       int    `json:"externalLinks"`
	BrokenInternalLinks int    `json:"brokenInternalLinks"`
	WordCount           int    `json:"wordCount"`

	IsHTML      bool    `json:"isHtml"`
	ContentHash string  `json:"contentHash,omitempty"`
	Tokens      int     `json:"tokens"`
	Metrics     Metrics `json:"metrics"`
	Advice      *Advice `json:"advice,omitempty"`
	AdviceError string  `json:"adviceError,omitempty"`
	FetchError  string  `json:"fetchError,omitempty"`

	// Links holds the internal link targets; used to compute broken links
	// and not persisted.
	Links []string `json:"-"`

	// Text is the main text used for advice; not persisted.
	Text string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

// Indexable reports whether neither the page nor its headers forbid indexing.
func (p *PageReport) Indexable() bool {
	return !p.Noindex && !p.XNoindex
}

// Followable reports whether links on the page may be followed.
func (p *PageReport) Followable() bool {
	return !p.Nofollow && !p.XNofollow
}

// Broken reports whether the URL returned an error or no response at all.
func (p *PageReport) Broken() bool {
	return p.Status == 0 || p.Status >= 400
}

// PageService represents a service for managing audited pages.
type PageService interface {
	// CreatePage saves a page report.
	CreatePage(ctx context.Context, page *PageReport) error

	// CreatePages saves page reports atomically: either all are saved or
	// none is.
	CreatePages(ctx context.Context, pages []*PageReport) error

	// FindPages retrieves pages matching the filter, ordered by position.
	FindPages(ctx context.Context, filter PageFilter) ([]*PageReport, error)

	// DeletePagesByAudit removes all pages for an audit.
	DeletePagesByAudit(ctx context.Context, auditID string) error
}

// PageFilter represents a filter for FindPages.
type PageFilter struct {
	AuditID *string `json:"auditId"`
	URL     *string `json:"url"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
