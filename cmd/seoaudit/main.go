package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/csv"
	"github.com/fwojciec/seoaudit/markdown"
	seoslog "github.com/fwojciec/seoaudit/slog"
	"github.com/fwojciec/seoaudit/sqlite"
	"github.com/fwojciec/seoaudit/template"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path used when neither --db nor SEOAUDIT_DB is set.
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Getenv reads API keys. Defaults to os.Getenv.
	Getenv func(string) string

	// NewAuditor builds the audit pipeline. Defaults to buildAuditor.
	NewAuditor AuditorFactory
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:     defaultDBPath(),
		Getenv:     os.Getenv,
		NewAuditor: buildAuditor,
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments. Failures are reported on
// stderr as "error: <message>" before being returned.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := loadEnvFile(args); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}

	deps := &Dependencies{
		Ctx:        ctx,
		Stdout:     stdout,
		Stderr:     stderr,
		Getenv:     m.Getenv,
		NewAuditor: m.NewAuditor,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("seoaudit"),
		kong.Description("Crawl a website and audit its SEO and UX."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Vars{
			"default_db":      m.DBPath,
			"default_ua":      seoaudit.DefaultUserAgent,
			"default_exclude": seoaudit.DefaultExclude,
		},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		err := seoaudit.Errorf(seoaudit.EINVALID, "no command specified. Run 'seoaudit --help' to see available commands")
		fmt.Fprintf(stderr, "error: %s\n", seoaudit.ErrorMessage(err))
		return err
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if isHelp(args) {
		return nil
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", err)
		return err
	}

	deps.Logger = seoslog.NewLogger(stderr, cli.Verbose)
	deps.Verbose = cli.Verbose

	m.DB = sqlite.NewDB(cli.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintln(stderr, "Hint: Set SEOAUDIT_DB or --db to use a different database path")
		fmt.Fprintf(stderr, "error: failed to open database at %q: %s\n", cli.DB, seoaudit.ErrorMessage(err))
		return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
	}
	defer m.Close()

	deps.DB = m.DB
	deps.Audits = sqlite.NewAuditService(m.DB)
	deps.Pages = sqlite.NewPageService(m.DB)

	templates, err := template.New()
	if err != nil {
		return err
	}
	deps.Templates = templates
	deps.Reports = map[seoaudit.ReportFormat]seoaudit.ReportRenderer{
		seoaudit.FormatCSV:      csv.NewRenderer(),
		seoaudit.FormatHTML:     templates,
		seoaudit.FormatMarkdown: markdown.NewRenderer(),
	}

	return kongCtx.Run(deps)
}

// loadEnvFile loads --env-file (default .env) into the environment without
// overriding variables that are already set. A missing default file is
// ignored.
func loadEnvFile(args []string) error {
	path, explicit := envFileFromArgs(args)
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return seoaudit.Errorf(seoaudit.EINVALID, "cannot load env file %q: %v", path, err)
}

// envFileFromArgs finds --env-file before kong parses the arguments, so
// variables from the file can feed flag defaults.
func envFileFromArgs(args []string) (path string, explicit bool) {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--env-file="); ok {
			return v, true
		}
		if arg == "--env-file" && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return ".env", false
}

func isHelp(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "seoaudit.db"
	}
	dir := filepath.Join(home, ".seoaudit")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "seoaudit.db")
}
