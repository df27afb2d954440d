package main

import (
	"fmt"

	"github.com/fwojciec/seoaudit"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return seoaudit.Errorf(seoaudit.EINVALID, "use --force to confirm deletion")
	}

	audit, err := deps.Audits.FindAuditByID(deps.Ctx, c.ID)
	if err != nil {
		if seoaudit.ErrorCode(err) == seoaudit.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: audit %q not found. Use 'seoaudit list' to see available audits.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}

	if err := deps.Audits.DeleteAudit(deps.Ctx, audit.ID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted audit %s (%s)\n", audit.ID, audit.StartURL)
	return nil
}
