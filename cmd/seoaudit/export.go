package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/fs"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	format, err := seoaudit.ParseReportFormat(c.Format)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}
	renderer, ok := deps.Reports[format]
	if !ok {
		err := seoaudit.Errorf(seoaudit.EINVALID, "report format %q not available", c.Format)
		fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}

	report, err := loadReport(deps.Ctx, deps, c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}

	if c.Out == "" {
		return renderer.Render(deps.Stdout, report)
	}

	store := fs.NewReportStore(filepath.Dir(c.Out))
	path, err := store.Save(deps.Ctx, filepath.Base(c.Out), func(w io.Writer) error {
		return renderer.Render(w, report)
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}
	fmt.Fprintln(deps.Stderr, savedLine(path))
	return nil
}
