package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/crawl"
	"github.com/fwojciec/seoaudit/fs"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	opts := c.Options()
	opts.AdvisePages = c.Advise

	audit := &seoaudit.Audit{StartURL: c.URL, Options: opts}
	if startURL, err := seoaudit.NormalizeStartURL(c.URL); err == nil {
		audit.StartURL = startURL
	}
	if err := audit.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}
	formats, err := seoaudit.ParseReportFormats(c.Format)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}

	cfg := PipelineConfig{
		Fetch:     c.FetchFlags,
		UserAgent: opts.UserAgent,
		Provider:  c.Provider,
		Model:     c.Model,
		Verbose:   deps.Verbose,
		Logger:    deps.Logger,
	}
	if opts.AdvisePages > 0 {
		key, err := lookupAPIKey(deps, c.Provider)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
			return err
		}
		cfg.APIKey = key
	}

	auditor, closer, err := deps.NewAuditor(deps.Ctx, cfg, deps.Audits, deps.Pages)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}
	defer closer.Close()

	if err := deps.Audits.CreateAudit(deps.Ctx, audit); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Auditing %s (audit %s)\n", audit.StartURL, audit.ID)

	res, runErr := auditor.Run(deps.Ctx, audit, progressPrinter(deps.Stdout, deps.Stderr))
	if runErr != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(runErr))
		if res != nil {
			fmt.Fprintf(deps.Stderr, "  partial results saved (%d pages)\n", len(res.Pages))
		}
		return runErr
	}

	report := seoaudit.NewReport(audit, res.Pages)
	fmt.Fprintln(deps.Stdout)
	printSummary(deps.Stdout, report)

	// Reports are written even if the user interrupts after the crawl.
	store := fs.NewReportStore(c.Out)
	saveCtx := context.WithoutCancel(deps.Ctx)
	fmt.Fprintln(deps.Stdout)
	for _, format := range formats {
		renderer, ok := deps.Reports[format]
		if !ok {
			continue
		}
		path, err := store.Save(saveCtx, fs.ReportName(audit, format), func(w io.Writer) error {
			return renderer.Render(w, report)
		})
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: save %s report: %s\n", format, errorText(err))
			return err
		}
		fmt.Fprintln(deps.Stdout, savedLine(path))
	}
	return nil
}

// maxURLWidth keeps progress lines on one terminal row.
const maxURLWidth = 70

// savedLine describes a written report file.
func savedLine(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "Saved " + path
	}
	return fmt.Sprintf("Saved %s (%s)", path, crawl.FormatBytes(int(info.Size())))
}

// progressPrinter prints crawl progress to stdout and failures to stderr.
// Advice events arrive from several goroutines.
func progressPrinter(stdout, stderr io.Writer) seoaudit.ProgressFunc {
	var mu sync.Mutex
	return func(p seoaudit.Progress) {
		mu.Lock()
		defer mu.Unlock()
		switch p.Kind {
		case seoaudit.ProgressPageDone:
			fmt.Fprintf(stdout, "  [%d/%d] %s\n", p.Completed, p.Total, crawl.TruncateURL(p.URL, maxURLWidth))
		case seoaudit.ProgressPageFailed:
			if p.Err != nil {
				fmt.Fprintf(stderr, "  [%d/%d] skip %s: %s\n", p.Completed, p.Total, crawl.TruncateURL(p.URL, maxURLWidth), errorText(p.Err))
			} else {
				fmt.Fprintf(stdout, "  [%d/%d] %s (%s)\n", p.Completed, p.Total, crawl.TruncateURL(p.URL, maxURLWidth), seoaudit.IssueUnreachable)
			}
		case seoaudit.ProgressAdvising:
			fmt.Fprintf(stdout, "  advice %d/%d %s\n", p.Completed, p.Total, crawl.TruncateURL(p.URL, maxURLWidth))
		case seoaudit.ProgressFinished:
			fmt.Fprintf(stdout, "  Crawled %d URLs\n", p.Completed)
		}
	}
}

// errorText returns the message of application errors and the full text
// of anything else.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	if seoaudit.ErrorCode(err) == seoaudit.EINTERNAL {
		return err.Error()
	}
	return seoaudit.ErrorMessage(err)
}
