package seoaudit

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Option bounds.
const (
	MinMaxPages    = 10
	MaxMaxPages    = 5000
	MinMaxDepth    = 1
	MaxMaxDepth    = 20
	MinConcurrency = 1
	MaxConcurrency = 32
	MaxDelay       = 5 * time.Second
	MaxAdvisePages = 50
)

// DefaultUserAgent identifies the crawler to site owners.
const DefaultUserAgent = "SEO-Audit-Bot/1.0 (+https://example.com)"

// DefaultExclude skips common binary assets.
const DefaultExclude = `\.(pdf|jpg|jpeg|png|gif|svg|webp|css|js|zip|mp4|mp3)(\?|$)`

// AuditOptions controls a single crawl.
type AuditOptions struct {
	MaxPages      int           `json:"maxPages"`
	MaxDepth      int           `json:"maxDepth"`
	Concurrency   int           `json:"concurrency"`
	Delay         time.Duration `json:"delay"`
	UserAgent     string        `json:"userAgent"`
	Scope         Scope         `json:"scope"`
	RespectRobots bool          `json:"respectRobots"`
	Include       string        `json:"include"`
	Exclude       string        `json:"exclude"`
	UseSitemap    bool          `json:"useSitemap"`

	// AdvisePages is the number of lowest scoring pages sent to the advisor.
	AdvisePages int `json:"advisePages"`

	// ThinWords is the word count below which a page is thin content.
	ThinWords int `json:"thinWords"`
}

// DefaultAuditOptions returns the options used when none are given.
func DefaultAuditOptions() AuditOptions {
	return AuditOptions{
		MaxPages:      200,
		MaxDepth:      5,
		Concurrency:   8,
		Delay:         200 * time.Millisecond,
		UserAgent:     DefaultUserAgent,
		Scope:         ScopeRegistrable,
		RespectRobots: true,
		Exclude:       DefaultExclude,
		ThinWords:     300,
	}
}

// Validate returns an error if any option is out of range.
func (o AuditOptions) Validate() error {
	switch {
	case o.MaxPages < MinMaxPages || o.MaxPages > MaxMaxPages:
		return Errorf(EINVALID, "max pages must be between %d and %d", MinMaxPages, MaxMaxPages)
	case o.MaxDepth < MinMaxDepth || o.MaxDepth > MaxMaxDepth:
		return Errorf(EINVALID, "max depth must be between %d and %d", MinMaxDepth, MaxMaxDepth)
	case o.Concurrency < MinConcurrency || o.Concurrency > MaxConcurrency:
		return Errorf(EINVALID, "concurrency must be between %d and %d", MinConcurrency, MaxConcurrency)
	case o.Delay < 0 || o.Delay > MaxDelay:
		return Errorf(EINVALID, "delay must be between 0 and %s", MaxDelay)
	case o.AdvisePages < 0 || o.AdvisePages > MaxAdvisePages:
		return Errorf(EINVALID, "advise pages must be between 0 and %d", MaxAdvisePages)
	case o.ThinWords < 0:
		return Errorf(EINVALID, "thin content threshold must not be negative")
	case strings.TrimSpace(o.UserAgent) == "":
		return Errorf(EINVALID, "user agent required")
	case !o.Scope.Valid():
		return Errorf(EINVALID, "unknown scope %q", o.Scope)
	}
	_, err := NewURLFilter(o.Include, o.Exclude)
	return err
}

// NormalizeStartURL trims rawURL and ensures it is an absolute http(s) URL.
func NormalizeStartURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", Errorf(EINVALID, "start URL required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", Errorf(EINVALID, "invalid start URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", Errorf(EINVALID, "start URL must start with http:// or https://")
	}
	if u.Hostname() == "" {
		return "", Errorf(EINVALID, "start URL has no host")
	}
	u.Fragment = ""
	return u.String(), nil
}

// AuditStatus is the lifecycle state of an audit.
type AuditStatus string

const (
	AuditPending   AuditStatus = "pending"
	AuditRunning   AuditStatus = "running"
	AuditCompleted AuditStatus = "completed"
	AuditFailed    AuditStatus = "failed"
)

// Done reports whether the audit has reached a terminal state.
func (s AuditStatus) Done() bool {
	return s == AuditCompleted || s == AuditFailed
}

// MaxFailSamples caps the number of fetch failures kept for display.
const MaxFailSamples = 5

// FailSample records why a URL could not be audited.
type FailSample struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// CrawlStats counts what happened during a crawl.
type CrawlStats struct {
	Crawled      int          `json:"crawled"`
	HTMLPages    int          `json:"htmlPages"`
	FetchErrors  int          `json:"fetchErrors"`
	RobotsDenied int          `json:"robotsDenied"`
	Blocked      int          `json:"blocked"`
	OutOfScope   int          `json:"outOfScope"`
	FailSamples  []FailSample `json:"failSamples"`
}

// AddFailSample records a failure, keeping at most MaxFailSamples.
func (s *CrawlStats) AddFailSample(url, reason string) {
	if len(s.FailSamples) >= MaxFailSamples {
		return
	}
	s.FailSamples = append(s.FailSamples, FailSample{URL: url, Reason: reason})
}

// Audit represents one site audit run.
type Audit struct {
	ID         string       `json:"id"`
	StartURL   string       `json:"startUrl"`
	Options    AuditOptions `json:"options"`
	Status     AuditStatus  `json:"status"`
	Error      string       `json:"error,omitempty"`
	Stats      CrawlStats   `json:"stats"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
}

// Validate returns an error if the audit contains invalid fields.
func (a *Audit) Validate() error {
	if _, err := NormalizeStartURL(a.StartURL); err != nil {
		return err
	}
	return a.Options.Validate()
}

// AuditService represents a service for managing audits.
type AuditService interface {
	// CreateAudit creates a new audit in the pending state.
	CreateAudit(ctx context.Context, audit *Audit) error

	// FindAuditByID retrieves an audit by ID.
	// Returns ENOTFOUND if audit does not exist.
	FindAuditByID(ctx context.Context, id string) (*Audit, error)

	// FindAudits retrieves audits matching the filter, newest first.
	FindAudits(ctx context.Context, filter AuditFilter) ([]*Audit, error)

	// UpdateAudit updates an existing audit.
	// Returns ENOTFOUND if audit does not exist.
	UpdateAudit(ctx context.Context, id string, upd AuditUpdate) (*Audit, error)

	// DeleteAudit permanently removes an audit and all its pages.
	// Returns ENOTFOUND if audit does not exist.
	DeleteAudit(ctx context.Context, id string) error
}

// AuditFilter represents a filter for FindAudits.
type AuditFilter struct {
	ID     *string      `json:"id"`
	Status *AuditStatus `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// AuditUpdate represents fields that can be updated on an audit.
type AuditUpdate struct {
	Status     *AuditStatus `json:"status"`
	Error      *string      `json:"error"`
	Stats      *CrawlStats  `json:"stats"`
	FinishedAt *time.Time   `json:"finishedAt"`
}

// ProgressKind identifies a crawl progress event.
type ProgressKind string

const (
	ProgressStarted    ProgressKind = "started"
	ProgressPageDone   ProgressKind = "page_done"
	ProgressPageFailed ProgressKind = "page_failed"
	ProgressAdvising   ProgressKind = "advising"
	ProgressFinished   ProgressKind = "finished"
)

// Progress reports crawl progress.
type Progress struct {
	Kind      ProgressKind
	URL       string
	Completed int
	Total     int
	Err       error
}

// ProgressFunc is called as the audit advances.
type ProgressFunc func(Progress)
