// Package crawl provides site audit orchestration. It walks a site
// breadth-first, turns every fetched URL into a seoaudit.PageReport and
// asks an advisor for recommendations on the weakest pages.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/seoaudit"
)

// Frontier sizing for Bloom filter deduplication.
const (
	frontierURLsPerPage       = 20
	frontierFalsePositiveRate = 0.001
)

// URLGuard vets URLs before they are fetched by a fetcher that does its
// own dialing, such as a headless browser.
type URLGuard interface {
	CheckURL(ctx context.Context, url string) error
}

// Crawler walks a site and produces page reports.
type Crawler struct {
	Fetcher      seoaudit.Fetcher
	Robots       seoaudit.RobotsService
	Sitemaps     seoaudit.SitemapService
	Parser       seoaudit.PageParser
	Extractor    seoaudit.Extractor
	Converter    seoaudit.Converter
	TokenCounter seoaudit.TokenCounter

	// RateLimiter overrides the per-host limiter built from AuditOptions.Delay.
	RateLimiter seoaudit.DomainLimiter

	// Guard, when set, is consulted before every fetch.
	Guard URLGuard

	RetryDelays []time.Duration
	Logger      LogFunc
}

// Result holds the outcome of a crawl.
type Result struct {
	Pages []*seoaudit.PageReport
	Stats seoaudit.CrawlStats
}

// crawlJob holds the state of one Crawl call.
type crawlJob struct {
	c        *Crawler
	startURL string
	opts     seoaudit.AuditOptions
	filter   *seoaudit.URLFilter
	robots   seoaudit.RobotsPolicy
	limiter  seoaudit.DomainLimiter
	delays   []time.Duration
	progress seoaudit.ProgressFunc

	// Owned by the coordinator goroutine.
	result Result
}

// crawlResult holds the outcome of processing a single URL.
type crawlResult struct {
	item     seoaudit.QueuedURL
	page     *seoaudit.PageReport
	children []string
	external int
	err      error
}

// Crawl audits the site at startURL. Pages are returned in the order they
// finished. When ctx is canceled the pages gathered so far are returned
// together with the context error.
func (c *Crawler) Crawl(ctx context.Context, startURL string, opts seoaudit.AuditOptions, progress seoaudit.ProgressFunc) (*Result, error) {
	startURL, err := seoaudit.NormalizeStartURL(startURL)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	filter, err := seoaudit.NewURLFilter(opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}

	job := &crawlJob{
		c:        c,
		startURL: startURL,
		opts:     opts,
		filter:   filter,
		robots:   seoaudit.AllowAll{},
		limiter:  c.RateLimiter,
		delays:   c.RetryDelays,
		progress: progress,
	}
	if job.limiter == nil {
		job.limiter = NewDomainLimiter(opts.Delay)
	}
	if job.delays == nil {
		job.delays = DefaultRetryDelays()
	}
	if job.progress == nil {
		job.progress = func(seoaudit.Progress) {}
	}

	if opts.RespectRobots && c.Robots != nil {
		policy, err := c.Robots.FetchRobots(ctx, startURL, opts.UserAgent)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("fetch robots.txt: %w", err)
		}
		job.robots = policy
	}

	frontier := NewFrontier(uint(opts.MaxPages*frontierURLsPerPage), frontierFalsePositiveRate)
	frontier.Push(seoaudit.QueuedURL{URL: startURL, Depth: 0})

	if opts.UseSitemap && c.Sitemaps != nil {
		urls, err := c.Sitemaps.DiscoverURLs(ctx, startURL, filter)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for _, u := range urls {
			if opts.Scope.Contains(startURL, u) {
				frontier.Push(seoaudit.QueuedURL{URL: u, Depth: 1})
			}
		}
	}

	job.progress(seoaudit.Progress{Kind: seoaudit.ProgressStarted, URL: startURL, Total: opts.MaxPages})

	walkFrontier(ctx, frontier, opts.Concurrency, opts.MaxPages, job.admit, job.process, job.handle)

	markBrokenLinks(job.result.Pages)

	job.progress(seoaudit.Progress{
		Kind:      seoaudit.ProgressFinished,
		Completed: len(job.result.Pages),
		Total:     opts.MaxPages,
	})

	return &job.result, ctx.Err()
}

// admit decides on the coordinator whether a popped URL is dispatched.
func (j *crawlJob) admit(item seoaudit.QueuedURL) bool {
	if j.opts.RespectRobots && !j.robots.Allowed(item.URL) {
		j.result.Stats.RobotsDenied++
		return false
	}
	return true
}

// process fetches and analyzes one URL on a worker goroutine.
func (j *crawlJob) process(ctx context.Context, item seoaudit.QueuedURL) crawlResult {
	res := crawlResult{item: item}

	if j.c.Guard != nil {
		if err := j.c.Guard.CheckURL(ctx, item.URL); err != nil {
			res.err = err
			res.page = unreachablePage(item, nil, err)
			return res
		}
	}

	u, err := url.Parse(item.URL)
	if err != nil {
		res.err = seoaudit.Errorf(seoaudit.EINVALID, "invalid URL %q", item.URL)
		res.page = unreachablePage(item, nil, res.err)
		return res
	}
	if err := j.limiter.Wait(ctx, u.Host); err != nil {
		res.err = err
		res.page = unreachablePage(item, nil, err)
		return res
	}

	resp, err := FetchWithRetryDelays(ctx, item.URL, j.c.Fetcher.Fetch, j.c.Logger, j.delays)
	if err != nil {
		res.err = err
		res.page = unreachablePage(item, nil, err)
		return res
	}
	if resp.StatusCode != 200 || !resp.IsHTML || resp.Body == "" {
		res.page = unreachablePage(item, resp, nil)
		return res
	}

	page, children, external, err := j.analyze(ctx, item, resp)
	if err != nil {
		res.err = err
		res.page = unreachablePage(item, resp, err)
		return res
	}
	res.page = page
	res.children = children
	res.external = external
	return res
}

// analyze builds the report for an HTML page and returns the in-scope
// links to follow.
func (j *crawlJob) analyze(ctx context.Context, item seoaudit.QueuedURL, resp *seoaudit.Response) (*seoaudit.PageReport, []string, int, error) {
	finalURL := resp.FinalURL
	if finalURL == "" {
		finalURL = item.URL
	}

	parsed, err := j.c.Parser.Parse(finalURL, resp.Body)
	if err != nil {
		return nil, nil, 0, err
	}

	var internal []string
	external := 0
	for _, link := range parsed.Links {
		if !j.filter.Match(link) {
			continue
		}
		if !j.opts.Scope.Contains(j.startURL, link) {
			external++
			continue
		}
		internal = append(internal, link)
	}

	page := &seoaudit.PageReport{
		URL:              item.URL,
		Status:           resp.StatusCode,
		Depth:            item.Depth,
		FinalURL:         finalURL,
		Redirects:        resp.Redirects,
		Canonical:        parsed.Canonical,
		CanonicalStatus:  canonicalStatus(parsed.Canonical, finalURL),
		RobotsMeta:       parsed.RobotsMeta,
		Noindex:          robotsDirective(parsed.RobotsMeta, "noindex"),
		Nofollow:         robotsDirective(parsed.RobotsMeta, "nofollow"),
		XNoindex:         robotsDirective(resp.XRobotsTag, "noindex"),
		XNofollow:        robotsDirective(resp.XRobotsTag, "nofollow"),
		Title:            parsed.Title,
		TitleIssue:       seoaudit.CheckTitle(parsed.Title),
		Description:      parsed.Description,
		DescriptionIssue: seoaudit.CheckDescription(parsed.Description),
		H1Count:          parsed.H1Count,
		Images:           len(parsed.Images),
		ImagesMissingAlt: missingAlt(parsed.Images),
		InternalLinks:    len(internal),
		ExternalLinks:    external,
		WordCount:        parsed.WordCount,
		IsHTML:           true,
		Links:            internal,
	}

	content := j.mainContent(parsed, finalURL, resp.Body)
	page.Text = content
	page.ContentHash = ComputeHash(content)
	if j.c.TokenCounter != nil && content != "" {
		if n, err := j.c.TokenCounter.CountTokens(ctx, content); err == nil {
			page.Tokens = n
		}
	}

	page.Metrics = seoaudit.ComputeMetrics(seoaudit.MetricsInput{
		URL:            item.URL,
		Title:          parsed.Title,
		Description:    parsed.Description,
		H1:             parsed.H1,
		WordCount:      parsed.WordCount,
		ParagraphCount: parsed.ParagraphCount,
		Images:         parsed.Images,
		Links:          internal,
		Viewport:       parsed.Viewport,
		HasLDJSON:      parsed.HasLDJSON,
		Text:           parsed.Text,
	})

	return page, internal, external, nil
}

// mainContent returns the Markdown rendering of the page's main content,
// falling back to the parser's text when extraction yields nothing.
func (j *crawlJob) mainContent(parsed *seoaudit.ParsedPage, pageURL, html string) string {
	if j.c.Extractor == nil || j.c.Converter == nil {
		return parsed.Text
	}
	extracted, err := extractWith(j.c.Extractor, html, pageURL)
	if err != nil || strings.TrimSpace(extracted.ContentHTML) == "" {
		return parsed.Text
	}
	md, err := j.c.Converter.Convert(extracted.ContentHTML)
	if err != nil || strings.TrimSpace(md) == "" {
		return parsed.Text
	}
	return md
}

// handle records a finished URL on the coordinator and queues its children.
func (j *crawlJob) handle(res *crawlResult, frontier *Frontier) {
	page := res.page
	page.Position = len(j.result.Pages)
	j.result.Pages = append(j.result.Pages, page)

	stats := &j.result.Stats
	stats.Crawled++
	stats.OutOfScope += res.external

	if !page.IsHTML {
		switch {
		case res.err != nil && seoaudit.ErrorCode(res.err) == seoaudit.EFORBIDDEN:
			stats.Blocked++
		case res.err != nil:
			stats.FetchErrors++
		}
		stats.AddFailSample(page.URL, page.FetchError)
		j.progress(seoaudit.Progress{
			Kind:      seoaudit.ProgressPageFailed,
			URL:       page.URL,
			Completed: len(j.result.Pages),
			Total:     j.opts.MaxPages,
			Err:       res.err,
		})
		return
	}

	stats.HTMLPages++
	j.progress(seoaudit.Progress{
		Kind:      seoaudit.ProgressPageDone,
		URL:       page.URL,
		Completed: len(j.result.Pages),
		Total:     j.opts.MaxPages,
	})

	if res.item.Depth >= j.opts.MaxDepth {
		return
	}
	if j.opts.RespectRobots && !page.Followable() {
		return
	}
	for _, child := range res.children {
		frontier.Push(seoaudit.QueuedURL{URL: child, Depth: res.item.Depth + 1})
	}
}

// unreachablePage builds the row for a URL that yielded no HTML document.
func unreachablePage(item seoaudit.QueuedURL, resp *seoaudit.Response, err error) *seoaudit.PageReport {
	page := &seoaudit.PageReport{
		URL:        item.URL,
		Depth:      item.Depth,
		FinalURL:   item.URL,
		TitleIssue: seoaudit.IssueUnreachable,
	}
	if resp != nil {
		page.Status = resp.StatusCode
		if resp.FinalURL != "" {
			page.FinalURL = resp.FinalURL
		}
		page.Redirects = resp.Redirects
		page.XNoindex = robotsDirective(resp.XRobotsTag, "noindex")
		page.XNofollow = robotsDirective(resp.XRobotsTag, "nofollow")
	}
	page.FetchError = failReason(resp, err)
	return page
}

func failReason(resp *seoaudit.Response, err error) string {
	switch {
	case err != nil && seoaudit.ErrorCode(err) != seoaudit.EINTERNAL:
		return seoaudit.ErrorMessage(err)
	case err != nil:
		return err.Error()
	case resp.StatusCode != 200:
		return fmt.Sprintf("HTTP %d", resp.StatusCode)
	case !resp.IsHTML:
		ct := resp.ContentType
		if ct == "" {
			ct = "unknown"
		}
		return "non-HTML content (" + ct + ")"
	}
	return "empty body"
}

// canonicalStatus compares the canonical URL with the page's final URL,
// ignoring a trailing slash.
func canonicalStatus(canonical, finalURL string) string {
	if canonical == "" {
		return seoaudit.CanonicalMissing
	}
	if strings.TrimRight(canonical, "/") == strings.TrimRight(finalURL, "/") {
		return seoaudit.CanonicalOK
	}
	return seoaudit.CanonicalOther
}

// valuedRobotsDirectives take an argument after a colon, so their colon
// does not introduce a user agent.
var valuedRobotsDirectives = map[string]bool{
	"max-snippet":       true,
	"max-image-preview": true,
	"max-video-preview": true,
	"unavailable_after": true,
}

// robotsDirective reports whether the comma separated robots meta or
// X-Robots-Tag value lists directive as a whole token. A leading
// "useragent:" is ignored and "none" implies both noindex and nofollow.
func robotsDirective(value, directive string) bool {
	for _, tok := range strings.Split(strings.ToLower(value), ",") {
		tok = strings.TrimSpace(tok)
		if name, rest, ok := strings.Cut(tok, ":"); ok {
			if valuedRobotsDirectives[strings.TrimSpace(name)] {
				continue
			}
			tok = strings.TrimSpace(rest)
		}
		if tok == directive || tok == "none" {
			return true
		}
	}
	return false
}

func missingAlt(images []seoaudit.Image) int {
	n := 0
	for _, img := range images {
		if strings.TrimSpace(img.Alt) == "" {
			n++
		}
	}
	return n
}

// markBrokenLinks counts, for every page, the distinct internal links whose
// target was fetched and came back with no response or an error status.
func markBrokenLinks(pages []*seoaudit.PageReport) {
	byURL := make(map[string]*seoaudit.PageReport, len(pages))
	for _, p := range pages {
		byURL[stripFragment(p.URL)] = p
	}
	for _, p := range pages {
		seen := make(map[string]bool, len(p.Links))
		for _, link := range p.Links {
			link = stripFragment(link)
			if seen[link] {
				continue
			}
			seen[link] = true
			if target, ok := byURL[link]; ok && target.Broken() {
				p.BrokenInternalLinks++
			}
		}
	}
}
