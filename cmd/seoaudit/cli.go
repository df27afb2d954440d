package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/sqlite"
	"github.com/fwojciec/seoaudit/template"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Verbose bool
	Getenv  func(string) string

	DB     *sqlite.DB
	Audits seoaudit.AuditService
	Pages  seoaudit.PageService

	Templates *template.Renderer
	Reports   map[seoaudit.ReportFormat]seoaudit.ReportRenderer

	NewAuditor AuditorFactory
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB      string `env:"SEOAUDIT_DB" default:"${default_db}" help:"SQLite database path"`
	Verbose bool   `short:"v" help:"Log debug output to stderr"`
	EnvFile string `name:"env-file" default:".env" help:"File with API keys and other environment variables"`

	Crawl  CrawlCmd  `cmd:"" help:"Crawl and audit a website"`
	Serve  ServeCmd  `cmd:"" help:"Run the web UI"`
	List   ListCmd   `cmd:"" help:"List audits"`
	Show   ShowCmd   `cmd:"" help:"Show an audit summary"`
	Export ExportCmd `cmd:"" help:"Export an audit report"`
	Delete DeleteCmd `cmd:"" help:"Delete an audit and its pages"`
}

// AuditFlags are the crawl settings shared by every command that runs audits.
type AuditFlags struct {
	MaxPages    int           `name:"max-pages" default:"200" help:"Maximum number of URLs to audit (10-5000)"`
	MaxDepth    int           `name:"max-depth" default:"5" help:"Maximum link depth from the start URL (1-20)"`
	Concurrency int           `short:"c" default:"8" help:"Concurrent fetches (1-32)"`
	Delay       time.Duration `default:"200ms" help:"Minimum delay between requests to the same host"`
	UserAgent   string        `name:"user-agent" default:"${default_ua}" help:"User-Agent header"`
	Scope       string        `enum:"registrable,host" default:"registrable" help:"Internal link scope: registrable (eTLD+1) or host"`
	Robots      bool          `default:"true" negatable:"" help:"Respect robots.txt and robots meta"`
	Include     string        `help:"Only audit URLs matching this regex"`
	Exclude     string        `default:"${default_exclude}" help:"Skip URLs matching this regex"`
	Sitemap     bool          `help:"Seed the crawl from sitemap.xml"`
	ThinWords   int           `name:"thin-words" default:"300" help:"Word count below which a page is thin content"`
}

// Options converts the flags to audit options.
func (f AuditFlags) Options() seoaudit.AuditOptions {
	return seoaudit.AuditOptions{
		MaxPages:      f.MaxPages,
		MaxDepth:      f.MaxDepth,
		Concurrency:   f.Concurrency,
		Delay:         f.Delay,
		UserAgent:     f.UserAgent,
		Scope:         seoaudit.Scope(f.Scope),
		RespectRobots: f.Robots,
		Include:       f.Include,
		Exclude:       f.Exclude,
		UseSitemap:    f.Sitemap,
		ThinWords:     f.ThinWords,
	}
}

// FetchFlags select how pages are fetched.
type FetchFlags struct {
	Render       bool          `help:"Render pages in headless Chrome"`
	AllowPrivate bool          `name:"allow-private" help:"Allow private and loopback addresses"`
	Insecure     bool          `help:"Skip TLS certificate verification"`
	IPv4         bool          `name:"ipv4" help:"Connect over IPv4 only"`
	Timeout      time.Duration `default:"20s" help:"Per request timeout"`
}

// AdviceFlags select the AI advisor.
type AdviceFlags struct {
	Provider string `enum:"openai,gemini" default:"openai" help:"AI provider: openai or gemini"`
	Model    string `help:"Model name (default depends on provider)"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	URL string `arg:"" help:"Start URL"`

	AuditFlags  `embed:""`
	FetchFlags  `embed:""`
	AdviceFlags `embed:""`

	Advise int    `default:"0" help:"Ask the AI advisor about the N lowest scoring pages (0-50)"`
	Out    string `default:"." help:"Directory for report files"`
	Format string `default:"csv,html,md" help:"Comma separated report formats: csv, html, md"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr       string `default:":8501" help:"Listen address"`
	MaxRunning int    `name:"max-running" default:"2" help:"Audits running at once"`

	FetchFlags  `embed:""`
	AdviceFlags `embed:""`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Status string `help:"Only show audits with this status (pending, running, completed, failed)"`
	Limit  int    `default:"20" help:"Maximum number of audits"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID    string `arg:"" help:"Audit ID"`
	Pages bool   `help:"List every page"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	ID     string `arg:"" help:"Audit ID"`
	Format string `enum:"csv,html,md" default:"md" help:"Report format: csv, html or md"`
	Out    string `help:"Output file (default stdout)"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Audit ID"`
	Force bool   `help:"Confirm deletion"`
}
