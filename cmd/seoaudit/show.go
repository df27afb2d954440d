package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/seoaudit"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	report, err := loadReport(deps.Ctx, deps, c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}

	a := report.Audit
	fmt.Fprintf(deps.Stdout, "Audit %s\n", a.ID)
	fmt.Fprintf(deps.Stdout, "URL:     %s\n", a.StartURL)
	fmt.Fprintf(deps.Stdout, "Status:  %s\n", a.Status)
	if a.Error != "" {
		fmt.Fprintf(deps.Stdout, "Error:   %s\n", a.Error)
	}
	fmt.Fprintf(deps.Stdout, "Created: %s\n\n", a.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	printSummary(deps.Stdout, report)

	if c.Pages {
		fmt.Fprintln(deps.Stdout)
		printPages(deps.Stdout, report.Pages)
	}
	return nil
}

// loadReport reads an audit and its pages.
func loadReport(ctx context.Context, deps *Dependencies, id string) (*seoaudit.Report, error) {
	audit, err := deps.Audits.FindAuditByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pages, err := deps.Pages.FindPages(ctx, seoaudit.PageFilter{AuditID: &audit.ID})
	if err != nil {
		return nil, err
	}
	return seoaudit.NewReport(audit, pages), nil
}
