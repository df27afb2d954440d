package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedAudit creates an audit and returns the database and its ID.
func seedAudit(t *testing.T) (*sqlite.DB, string) {
	t.Helper()

	db := openDB(t)
	audit := newAudit("https://example.com/")
	require.NoError(t, sqlite.NewAuditService(db).CreateAudit(context.Background(), audit))
	return db, audit.ID
}

func TestPageService_CreatePage(t *testing.T) {
	t.Parallel()

	t.Run("round trips every column", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db, auditID := seedAudit(t)
		svc := sqlite.NewPageService(db)

		page := &seoaudit.PageReport{
			AuditID:             auditID,
			Position:            3,
			URL:                 "https://example.com/pricing",
			Status:              200,
			Depth:               1,
			FinalURL:            "https://example.com/pricing/",
			Redirects:           1,
			Canonical:           "https://example.com/pricing/",
			CanonicalStatus:     seoaudit.CanonicalOK,
			RobotsMeta:          "noindex",
			Noindex:             true,
			XNofollow:           true,
			Title:               "Pricing",
			TitleIssue:          "title too short (7)",
			Description:         "",
			DescriptionIssue:    "description missing",
			H1Count:             2,
			Images:              4,
			ImagesMissingAlt:    3,
			InternalLinks:       12,
			ExternalLinks:       2,
			BrokenInternalLinks: 1,
			WordCount:           420,
			IsHTML:              true,
			ContentHash:         "abc123",
			Tokens:              600,
			Metrics:             seoaudit.Metrics{Images: 4, ImagesAltFilled: 1, ImagesAltRatio: 0.25, SEOScore: 35, UXScore: 40, CTAHits: 1},
			Advice:              &seoaudit.Advice{Summary: "Fix the title", TopIssues: []string{"short title"}, Recommendations: []string{"lengthen title"}},
			AdviceError:         "",
			FetchError:          "",
		}

		require.NoError(t, svc.CreatePage(ctx, page))
		assert.NotEmpty(t, page.ID)

		got, err := svc.FindPages(ctx, seoaudit.PageFilter{AuditID: &auditID})
		require.NoError(t, err)
		require.Len(t, got, 1)

		want := *page
		want.CreatedAt = got[0].CreatedAt
		assert.Equal(t, &want, got[0])
		assert.True(t, page.CreatedAt.Equal(got[0].CreatedAt))
	})

	t.Run("stores rows without advice", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db, auditID := seedAudit(t)
		svc := sqlite.NewPageService(db)

		require.NoError(t, svc.CreatePage(ctx, &seoaudit.PageReport{
			AuditID:     auditID,
			URL:         "https://example.com/down",
			TitleIssue:  seoaudit.IssueUnreachable,
			FetchError:  "HTTP 503",
			AdviceError: "",
		}))

		got, err := svc.FindPages(ctx, seoaudit.PageFilter{AuditID: &auditID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].Advice)
		assert.Equal(t, "HTTP 503", got[0].FetchError)
	})

	t.Run("requires an existing audit", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewPageService(openDB(t))

		err := svc.CreatePage(context.Background(), &seoaudit.PageReport{AuditID: "missing", URL: "https://example.com/"})

		assert.Equal(t, seoaudit.ENOTFOUND, seoaudit.ErrorCode(err))
	})

	t.Run("validates required fields", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewPageService(openDB(t))

		err := svc.CreatePage(context.Background(), &seoaudit.PageReport{URL: "https://example.com/"})
		assert.Equal(t, seoaudit.EINVALID, seoaudit.ErrorCode(err))

		err = svc.CreatePage(context.Background(), &seoaudit.PageReport{AuditID: "a"})
		assert.Equal(t, seoaudit.EINVALID, seoaudit.ErrorCode(err))
	})
}

func TestPageService_CreatePages(t *testing.T) {
	t.Parallel()

	t.Run("saves every page", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db, auditID := seedAudit(t)
		svc := sqlite.NewPageService(db)

		pages := []*seoaudit.PageReport{
			{AuditID: auditID, URL: "https://example.com/", Position: 0},
			{AuditID: auditID, URL: "https://example.com/a", Position: 1},
		}
		require.NoError(t, svc.CreatePages(ctx, pages))

		got, err := svc.FindPages(ctx, seoaudit.PageFilter{AuditID: &auditID})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, pages[0].ID, got[0].ID)
		assert.Equal(t, pages[1].ID, got[1].ID)
	})

	t.Run("saves nothing when one insert fails", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db, auditID := seedAudit(t)
		svc := sqlite.NewPageService(db)

		pages := []*seoaudit.PageReport{
			{AuditID: auditID, URL: "https://example.com/", Position: 0},
			{AuditID: "missing", URL: "https://example.com/a", Position: 1},
		}
		err := svc.CreatePages(ctx, pages)

		assert.Equal(t, seoaudit.ENOTFOUND, seoaudit.ErrorCode(err))
		assert.Empty(t, pages[0].ID)

		got, err := svc.FindPages(ctx, seoaudit.PageFilter{AuditID: &auditID})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("validates before writing", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db, auditID := seedAudit(t)
		svc := sqlite.NewPageService(db)

		err := svc.CreatePages(ctx, []*seoaudit.PageReport{
			{AuditID: auditID, URL: "https://example.com/"},
			{AuditID: auditID},
		})
		assert.Equal(t, seoaudit.EINVALID, seoaudit.ErrorCode(err))

		got, err := svc.FindPages(ctx, seoaudit.PageFilter{AuditID: &auditID})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestPageService_FindPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, auditID := seedAudit(t)
	svc := sqlite.NewPageService(db)

	// Insert out of order to check sorting by position.
	for _, pos := range []int{2, 0, 1, 3} {
		require.NoError(t, svc.CreatePage(ctx, &seoaudit.PageReport{
			AuditID:  auditID,
			Position: pos,
			URL:      fmt.Sprintf("https://example.com/p%d", pos),
		}))
	}

	t.Run("orders by position", func(t *testing.T) {
		t.Parallel()

		pages, err := svc.FindPages(ctx, seoaudit.PageFilter{AuditID: &auditID})

		require.NoError(t, err)
		require.Len(t, pages, 4)
		for i, p := range pages {
			assert.Equal(t, i, p.Position)
		}
	})

	t.Run("paginates", func(t *testing.T) {
		t.Parallel()

		pages, err := svc.FindPages(ctx, seoaudit.PageFilter{AuditID: &auditID, Limit: 2, Offset: 1})

		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, 1, pages[0].Position)
		assert.Equal(t, 2, pages[1].Position)
	})

	t.Run("filters by URL", func(t *testing.T) {
		t.Parallel()

		url := "https://example.com/p3"
		pages, err := svc.FindPages(ctx, seoaudit.PageFilter{AuditID: &auditID, URL: &url})

		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Equal(t, url, pages[0].URL)
	})
}

func TestPageService_DeletePagesByAudit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, auditID := seedAudit(t)
	svc := sqlite.NewPageService(db)
	require.NoError(t, svc.CreatePage(ctx, &seoaudit.PageReport{AuditID: auditID, URL: "https://example.com/"}))

	require.NoError(t, svc.DeletePagesByAudit(ctx, auditID))

	pages, err := svc.FindPages(ctx, seoaudit.PageFilter{AuditID: &auditID})
	require.NoError(t, err)
	assert.Empty(t, pages)
}
