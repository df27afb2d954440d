package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/seoaudit"
	main "github.com/fwojciec/seoaudit/cmd/seoaudit"
	"github.com/fwojciec/seoaudit/markdown"
	"github.com/fwojciec/seoaudit/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storedAudit returns services holding one completed audit with two pages.
func storedAudit() (*mock.AuditService, *mock.PageService) {
	audit := &seoaudit.Audit{
		ID:        "audit-1",
		StartURL:  "https://example.com/",
		Options:   seoaudit.DefaultAuditOptions(),
		Status:    seoaudit.AuditCompleted,
		Stats:     seoaudit.CrawlStats{Crawled: 2, HTMLPages: 2, RobotsDenied: 1},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	pages := []*seoaudit.PageReport{
		{
			AuditID: "audit-1", Position: 0, URL: "https://example.com/", Status: 200, IsHTML: true,
			Title: "Home", H1Count: 1, WordCount: 500,
			Metrics: seoaudit.Metrics{SEOScore: 80, UXScore: 70},
		},
		{
			AuditID: "audit-1", Position: 1, URL: "https://example.com/thin", Status: 200, IsHTML: true,
			TitleIssue: "title missing", DescriptionIssue: "description missing", WordCount: 20,
			Metrics: seoaudit.Metrics{SEOScore: 20, UXScore: 30},
		},
	}
	audits := &mock.AuditService{
		FindAuditByIDFn: func(_ context.Context, id string) (*seoaudit.Audit, error) {
			if id != audit.ID {
				return nil, seoaudit.Errorf(seoaudit.ENOTFOUND, "audit %q not found", id)
			}
			a := *audit
			return &a, nil
		},
	}
	pageSvc := &mock.PageService{
		FindPagesFn: func(_ context.Context, filter seoaudit.PageFilter) ([]*seoaudit.PageReport, error) {
			if filter.AuditID == nil || *filter.AuditID != audit.ID {
				return nil, nil
			}
			return pages, nil
		},
	}
	return audits, pageSvc
}

func TestShowCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints audit details and summary", func(t *testing.T) {
		t.Parallel()

		audits, pages := storedAudit()
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Audits: audits,
			Pages:  pages,
		}

		err := (&main.ShowCmd{ID: "audit-1"}).Run(deps)

		require.NoError(t, err)
		output := stdout.String()
		assert.Contains(t, output, "Audit audit-1")
		assert.Contains(t, output, "https://example.com/")
		assert.Contains(t, output, "completed")
		assert.Contains(t, output, "Average SEO score")
		assert.Contains(t, output, "50 (fair)")
		assert.Contains(t, output, "Robots denied: 1")
		assert.NotContains(t, output, "https://example.com/thin")
	})

	t.Run("lists pages with --pages", func(t *testing.T) {
		t.Parallel()

		audits, pages := storedAudit()
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Audits: audits,
			Pages:  pages,
		}

		err := (&main.ShowCmd{ID: "audit-1", Pages: true}).Run(deps)

		require.NoError(t, err)
		output := stdout.String()
		assert.Contains(t, output, "https://example.com/thin")
		assert.Contains(t, output, "title missing")
		assert.Contains(t, output, "0 h1")
	})

	t.Run("returns error for unknown audit", func(t *testing.T) {
		t.Parallel()

		audits, pages := storedAudit()
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Audits: audits,
			Pages:  pages,
		}

		err := (&main.ShowCmd{ID: "nope"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, seoaudit.ENOTFOUND, seoaudit.ErrorCode(err))
		assert.Contains(t, stderr.String(), `audit "nope" not found`)
	})
}

func TestExportCmd_Run(t *testing.T) {
	t.Parallel()

	reports := map[seoaudit.ReportFormat]seoaudit.ReportRenderer{
		seoaudit.FormatMarkdown: markdown.NewRenderer(),
	}

	t.Run("writes the report to stdout", func(t *testing.T) {
		t.Parallel()

		audits, pages := storedAudit()
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Audits:  audits,
			Pages:   pages,
			Reports: reports,
		}

		err := (&main.ExportCmd{ID: "audit-1", Format: "md"}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "https://example.com/thin")
	})

	t.Run("writes the report to --out", func(t *testing.T) {
		t.Parallel()

		audits, pages := storedAudit()
		out := filepath.Join(t.TempDir(), "nested", "report.md")
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  stderr,
			Audits:  audits,
			Pages:   pages,
			Reports: reports,
		}

		err := (&main.ExportCmd{ID: "audit-1", Format: "md", Out: out}).Run(deps)

		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), "https://example.com/thin")
		assert.Contains(t, stderr.String(), "Saved "+out)
	})

	t.Run("rejects formats without a renderer", func(t *testing.T) {
		t.Parallel()

		audits, pages := storedAudit()
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  stderr,
			Audits:  audits,
			Pages:   pages,
			Reports: reports,
		}

		err := (&main.ExportCmd{ID: "audit-1", Format: "csv"}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "not available")
	})
}
