package mock

import (
	"context"

	"github.com/fwojciec/seoaudit"
)

var _ seoaudit.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of seoaudit.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*seoaudit.Response, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*seoaudit.Response, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ seoaudit.RobotsService = (*RobotsService)(nil)

// RobotsService is a mock implementation of seoaudit.RobotsService.
type RobotsService struct {
	FetchRobotsFn func(ctx context.Context, siteURL, userAgent string) (seoaudit.RobotsPolicy, error)
}

func (s *RobotsService) FetchRobots(ctx context.Context, siteURL, userAgent string) (seoaudit.RobotsPolicy, error) {
	return s.FetchRobotsFn(ctx, siteURL, userAgent)
}

var _ seoaudit.RobotsPolicy = (*RobotsPolicy)(nil)

// RobotsPolicy is a mock implementation of seoaudit.RobotsPolicy.
type RobotsPolicy struct {
	AllowedFn func(url string) bool
}

func (p *RobotsPolicy) Allowed(url string) bool {
	return p.AllowedFn(url)
}

var _ seoaudit.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of seoaudit.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *seoaudit.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *seoaudit.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
