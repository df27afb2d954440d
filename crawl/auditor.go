package crawl

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/fwojciec/seoaudit"
	"golang.org/x/sync/errgroup"
)

// DefaultAdviceConcurrency is the number of advisor calls in flight at once.
const DefaultAdviceConcurrency = 3

// Auditor runs an audit end to end: crawl, advice, persistence.
type Auditor struct {
	Crawler *Crawler
	Audits  seoaudit.AuditService
	Pages   seoaudit.PageService

	// Advisor is optional. Without it AdvisePages is ignored.
	Advisor           seoaudit.Advisor
	AdviceConcurrency int

	// Now defaults to time.Now.
	Now func() time.Time
}

// Run executes audit, which must already be stored. Page reports are saved
// in crawl order and the audit ends completed or failed. When ctx is
// canceled the pages gathered so far are still saved and the audit is
// marked failed.
func (a *Auditor) Run(ctx context.Context, audit *seoaudit.Audit, progress seoaudit.ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(seoaudit.Progress) {}
	}

	running := seoaudit.AuditRunning
	if _, err := a.Audits.UpdateAudit(ctx, audit.ID, seoaudit.AuditUpdate{Status: &running}); err != nil {
		return nil, fmt.Errorf("mark audit running: %w", err)
	}
	audit.Status = running

	// Bookkeeping must survive cancellation of the crawl.
	saveCtx := context.WithoutCancel(ctx)

	res, crawlErr := a.Crawler.Crawl(ctx, audit.StartURL, audit.Options, progress)
	if res == nil {
		return nil, a.fail(saveCtx, audit, nil, crawlErr)
	}

	if crawlErr == nil {
		a.advise(ctx, res.Pages, audit.Options.AdvisePages, progress)
	}

	for _, page := range res.Pages {
		page.AuditID = audit.ID
	}
	if err := a.Pages.CreatePages(saveCtx, res.Pages); err != nil {
		return res, a.fail(saveCtx, audit, &res.Stats, fmt.Errorf("save pages: %w", err))
	}

	if crawlErr != nil {
		return res, a.fail(saveCtx, audit, &res.Stats, crawlErr)
	}

	completed := seoaudit.AuditCompleted
	finished := a.now()
	updated, err := a.Audits.UpdateAudit(saveCtx, audit.ID, seoaudit.AuditUpdate{
		Status:     &completed,
		Stats:      &res.Stats,
		FinishedAt: &finished,
	})
	if err != nil {
		return res, fmt.Errorf("mark audit completed: %w", err)
	}
	*audit = *updated
	return res, nil
}

// fail records cause on the audit and returns it.
func (a *Auditor) fail(ctx context.Context, audit *seoaudit.Audit, stats *seoaudit.CrawlStats, cause error) error {
	failed := seoaudit.AuditFailed
	finished := a.now()
	msg := seoaudit.ErrorMessage(cause)
	if seoaudit.ErrorCode(cause) == seoaudit.EINTERNAL {
		msg = cause.Error()
	}
	upd := seoaudit.AuditUpdate{
		Status:     &failed,
		Error:      &msg,
		Stats:      stats,
		FinishedAt: &finished,
	}
	if updated, err := a.Audits.UpdateAudit(ctx, audit.ID, upd); err == nil {
		*audit = *updated
	}
	return cause
}

// advise asks the advisor about the n HTML pages with the lowest SEO score.
// Advisor failures are recorded on the page and never abort the audit.
func (a *Auditor) advise(ctx context.Context, pages []*seoaudit.PageReport, n int, progress seoaudit.ProgressFunc) {
	targets := AdviceTargets(pages, n)
	if a.Advisor == nil || len(targets) == 0 {
		return
	}

	limit := a.AdviceConcurrency
	if limit <= 0 {
		limit = DefaultAdviceConcurrency
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, page := range targets {
		g.Go(func() error {
			advice, err := a.Advisor.Advise(gctx, seoaudit.AdviceRequest{
				URL:     page.URL,
				Title:   page.Title,
				Metrics: page.Metrics,
				Text:    page.Text,
			})
			if err != nil {
				page.AdviceError = adviceFailure(err)
			} else {
				page.Advice = advice
			}
			progress(seoaudit.Progress{
				Kind:      seoaudit.ProgressAdvising,
				URL:       page.URL,
				Completed: int(done.Add(1)),
				Total:     len(targets),
				Err:       err,
			})
			return nil
		})
	}
	_ = g.Wait()
}

// AdviceTargets returns up to n HTML pages ordered by ascending SEO score,
// ties broken by crawl position.
func AdviceTargets(pages []*seoaudit.PageReport, n int) []*seoaudit.PageReport {
	if n <= 0 {
		return nil
	}
	var html []*seoaudit.PageReport
	for _, p := range pages {
		if p.IsHTML {
			html = append(html, p)
		}
	}
	sort.SliceStable(html, func(i, j int) bool {
		if html[i].Metrics.SEOScore != html[j].Metrics.SEOScore {
			return html[i].Metrics.SEOScore < html[j].Metrics.SEOScore
		}
		return html[i].Position < html[j].Position
	})
	if len(html) > n {
		html = html[:n]
	}
	return html
}

func adviceFailure(err error) string {
	if seoaudit.ErrorCode(err) == seoaudit.EINTERNAL {
		return err.Error()
	}
	return seoaudit.ErrorMessage(err)
}

func (a *Auditor) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
