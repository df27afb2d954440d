package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/seoaudit"
)

var _ seoaudit.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with debug logging.
type LoggingSitemapService struct {
	next   seoaudit.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next seoaudit.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the operation.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *seoaudit.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("sitemap discovery",
			"url", baseURL,
			"filter", filter.String(),
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}

var _ seoaudit.RobotsService = (*LoggingRobotsService)(nil)

// LoggingRobotsService wraps a RobotsService with debug logging.
type LoggingRobotsService struct {
	next   seoaudit.RobotsService
	logger *slog.Logger
}

// NewLoggingRobotsService creates a new LoggingRobotsService.
func NewLoggingRobotsService(next seoaudit.RobotsService, logger *slog.Logger) *LoggingRobotsService {
	return &LoggingRobotsService{next: next, logger: logger}
}

// FetchRobots delegates to the wrapped service and logs the operation.
func (s *LoggingRobotsService) FetchRobots(ctx context.Context, siteURL, userAgent string) (policy seoaudit.RobotsPolicy, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("robots",
			"url", siteURL,
			"user_agent", userAgent,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FetchRobots(ctx, siteURL, userAgent)
}
