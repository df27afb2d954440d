package slog_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/mock"
	seoslog "github.com/fwojciec/seoaudit/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("logs discovery with count and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(context.Context, string, *seoaudit.URLFilter) ([]string, error) {
				return []string{"https://example.com/a", "https://example.com/b"}, nil
			},
		}

		urls, err := seoslog.NewLoggingSitemapService(inner, debugLogger(&buf)).DiscoverURLs(context.Background(), "https://example.com", nil)

		require.NoError(t, err)
		assert.Len(t, urls, 2)
		output := buf.String()
		assert.Contains(t, output, `msg="sitemap discovery"`)
		assert.Contains(t, output, "url=https://example.com")
		assert.Contains(t, output, "filter=none")
		assert.Contains(t, output, "count=2")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(context.Context, string, *seoaudit.URLFilter) ([]string, error) {
				return nil, errors.New("connection failed")
			},
		}

		_, err := seoslog.NewLoggingSitemapService(inner, debugLogger(&buf)).DiscoverURLs(context.Background(), "https://example.com", nil)

		require.Error(t, err)
		assert.Contains(t, buf.String(), `err="connection failed"`)
	})
}

func TestLoggingRobotsService_FetchRobots(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.RobotsService{
		FetchRobotsFn: func(context.Context, string, string) (seoaudit.RobotsPolicy, error) {
			return seoaudit.AllowAll{}, nil
		},
	}

	policy, err := seoslog.NewLoggingRobotsService(inner, debugLogger(&buf)).FetchRobots(context.Background(), "https://example.com/", "bot")

	require.NoError(t, err)
	assert.True(t, policy.Allowed("https://example.com/x"))
	assert.Contains(t, buf.String(), "msg=robots")
	assert.Contains(t, buf.String(), "user_agent=bot")
}
