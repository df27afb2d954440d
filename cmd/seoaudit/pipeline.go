package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/crawl"
	"github.com/fwojciec/seoaudit/gemini"
	"github.com/fwojciec/seoaudit/goquery"
	"github.com/fwojciec/seoaudit/htmltomarkdown"
	seohttp "github.com/fwojciec/seoaudit/http"
	"github.com/fwojciec/seoaudit/openai"
	"github.com/fwojciec/seoaudit/readability"
	"github.com/fwojciec/seoaudit/rod"
	seoslog "github.com/fwojciec/seoaudit/slog"
	"github.com/fwojciec/seoaudit/trafilatura"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// Advice providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// PipelineConfig selects the components of an audit pipeline.
type PipelineConfig struct {
	Fetch     FetchFlags
	UserAgent string

	// Advice is enabled when APIKey is set.
	Provider string
	Model    string
	APIKey   string

	Verbose bool
	Logger  *slog.Logger
}

// AuditorFactory builds an auditor and returns a closer for the resources
// it holds.
type AuditorFactory func(ctx context.Context, cfg PipelineConfig, audits seoaudit.AuditService, pages seoaudit.PageService) (*crawl.Auditor, io.Closer, error)

// closers closes all of its members, joining their errors.
type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildAuditor wires the production pipeline.
func buildAuditor(ctx context.Context, cfg PipelineConfig, audits seoaudit.AuditService, pages seoaudit.PageService) (*crawl.Auditor, io.Closer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	httpOpts := []seohttp.Option{seohttp.WithTimeout(cfg.Fetch.Timeout)}
	if cfg.UserAgent != "" {
		httpOpts = append(httpOpts, seohttp.WithUserAgent(cfg.UserAgent))
	}
	if cfg.Fetch.AllowPrivate {
		httpOpts = append(httpOpts, seohttp.WithAllowPrivate())
	}
	if cfg.Fetch.Insecure {
		httpOpts = append(httpOpts, seohttp.WithInsecureTLS())
	}
	if cfg.Fetch.IPv4 {
		httpOpts = append(httpOpts, seohttp.WithIPv4Only())
	}
	httpFetcher := seohttp.NewFetcher(httpOpts...)
	var cleanup closers
	cleanup = append(cleanup, httpFetcher)

	var fetcher seoaudit.Fetcher = httpFetcher
	var guard crawl.URLGuard
	if cfg.Fetch.Render {
		rodOpts := []rod.FetcherOption{rod.WithFetchTimeout(cfg.Fetch.Timeout)}
		if cfg.UserAgent != "" {
			rodOpts = append(rodOpts, rod.WithUserAgent(cfg.UserAgent))
		}
		browser, err := rod.NewFetcher(rodOpts...)
		if err != nil {
			_ = cleanup.Close()
			return nil, nil, seoaudit.Errorf(seoaudit.EUNAVAILABLE, "failed to start browser (Chrome or Chromium must be installed): %v", err)
		}
		cleanup = append(cleanup, browser)
		fetcher = browser
		// The browser dials on its own, so URLs are vetted up front.
		guard = httpFetcher.Guard()
	}

	var robots seoaudit.RobotsService = seohttp.NewRobotsService(httpFetcher.Client())
	var sitemaps seoaudit.SitemapService = seohttp.NewSitemapService(httpFetcher.Client(), cfg.UserAgent)
	if cfg.Verbose {
		fetcher = seoslog.NewLoggingFetcher(fetcher, logger)
		robots = seoslog.NewLoggingRobotsService(robots, logger)
		sitemaps = seoslog.NewLoggingSitemapService(sitemaps, logger)
	}

	crawler := &crawl.Crawler{
		Fetcher:   fetcher,
		Robots:    robots,
		Sitemaps:  sitemaps,
		Parser:    goquery.NewParser(),
		Extractor: crawl.NewFallbackExtractor(trafilatura.NewExtractor(), readability.NewExtractor()),
		Converter: htmltomarkdown.NewConverter(),
		Guard:     guard,
		Logger: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		},
	}
	if tc, err := gemini.NewTokenCounter(""); err != nil {
		logger.Warn("token counting disabled", "err", err)
	} else {
		crawler.TokenCounter = tc
	}

	auditor := &crawl.Auditor{
		Crawler: crawler,
		Audits:  audits,
		Pages:   pages,
	}

	if cfg.APIKey != "" {
		advisor, err := newAdvisor(ctx, cfg)
		if err != nil {
			_ = cleanup.Close()
			return nil, nil, err
		}
		if cfg.Verbose {
			advisor = seoslog.NewLoggingAdvisor(advisor, logger)
		}
		auditor.Advisor = advisor
	}

	return auditor, cleanup, nil
}

func newAdvisor(ctx context.Context, cfg PipelineConfig) (seoaudit.Advisor, error) {
	switch cfg.Provider {
	case ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, seoaudit.Errorf(seoaudit.EUNAVAILABLE, "failed to connect to Gemini API")
		}
		return gemini.NewAdvisor(client, cfg.Model), nil
	case ProviderOpenAI, "":
		return openai.NewAdvisor(cfg.Model,
			option.WithAPIKey(cfg.APIKey),
			option.WithRequestTimeout(60*time.Second),
		), nil
	}
	return nil, seoaudit.Errorf(seoaudit.EINVALID, "unknown provider %q", cfg.Provider)
}

// apiKeyEnv returns the environment variable holding provider's key.
func apiKeyEnv(provider string) string {
	if provider == ProviderGemini {
		return gemini.APIKeyEnv
	}
	return openai.APIKeyEnv
}

// apiKeyHint tells the user where to get a key for provider.
func apiKeyHint(provider string) string {
	if provider == ProviderGemini {
		return "Hint: set GEMINI_API_KEY in the environment or .env file. Get a key at https://aistudio.google.com/apikey"
	}
	return "Hint: set OPENAI_API_KEY in the environment or .env file. Get a key at https://platform.openai.com/api-keys"
}

// lookupAPIKey returns the key for provider, or an EINVALID error after
// printing a hint. The key itself is never printed.
func lookupAPIKey(deps *Dependencies, provider string) (string, error) {
	env := apiKeyEnv(provider)
	if key := deps.Getenv(env); key != "" {
		return key, nil
	}
	fmt.Fprintln(deps.Stderr, apiKeyHint(provider))
	return "", seoaudit.Errorf(seoaudit.EINVALID, "%s not set", env)
}
