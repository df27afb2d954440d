package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/seoaudit"
	seohttp "github.com/fwojciec/seoaudit/http"
)

// shutdownTimeout bounds how long running audits get to record their state.
const shutdownTimeout = 10 * time.Second

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	cfg := PipelineConfig{
		Fetch:    c.FetchFlags,
		Provider: c.Provider,
		Model:    c.Model,
		Verbose:  deps.Verbose,
		Logger:   deps.Logger,
	}
	// Advice is optional for the web UI.
	cfg.APIKey = deps.Getenv(apiKeyEnv(c.Provider))
	if cfg.APIKey == "" {
		fmt.Fprintln(deps.Stderr, "AI advice disabled. "+apiKeyHint(c.Provider))
	}

	auditor, closer, err := deps.NewAuditor(deps.Ctx, cfg, deps.Audits, deps.Pages)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}
	defer closer.Close()

	server := seohttp.NewServer(c.Addr, c.MaxRunning)
	server.Audits = deps.Audits
	server.Pages = deps.Pages
	server.Templates = deps.Templates
	server.Reports = deps.Reports
	server.Logger = deps.Logger
	server.AdviceEnabled = auditor.Advisor != nil
	server.Run = func(ctx context.Context, audit *seoaudit.Audit, progress seoaudit.ProgressFunc) error {
		_, err := auditor.Run(ctx, audit, progress)
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- server.ListenAndServe() }()
	fmt.Fprintf(deps.Stdout, "Listening on %s\n", c.Addr)

	select {
	case err := <-errc:
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		}
		return err
	case <-deps.Ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: shutdown: %s\n", err)
		return err
	}
	fmt.Fprintln(deps.Stdout, "Stopped")
	return nil
}
