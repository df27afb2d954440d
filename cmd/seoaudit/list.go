package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fwojciec/seoaudit"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := seoaudit.AuditFilter{Limit: c.Limit}
	if c.Status != "" {
		status := seoaudit.AuditStatus(c.Status)
		switch status {
		case seoaudit.AuditPending, seoaudit.AuditRunning, seoaudit.AuditCompleted, seoaudit.AuditFailed:
		default:
			err := seoaudit.Errorf(seoaudit.EINVALID, "unknown status %q", c.Status)
			fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
			return err
		}
		filter.Status = &status
	}

	audits, err := deps.Audits.FindAudits(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}

	if len(audits) == 0 {
		fmt.Fprintln(deps.Stdout, "No audits found. Use 'seoaudit crawl' to run one.")
		return nil
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPAGES\tCREATED\tURL")
	for _, a := range audits {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			a.ID, a.Status, a.Stats.Crawled, a.CreatedAt.Local().Format("2006-01-02 15:04"), a.StartURL)
	}
	return tw.Flush()
}
