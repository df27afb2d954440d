package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/fwojciec/seoaudit"
	"github.com/temoto/robotstxt"
)

// maxRobotsBytes caps the size of a robots.txt file.
const maxRobotsBytes = 512 << 10

// Ensure RobotsService implements seoaudit.RobotsService at compile time.
var _ seoaudit.RobotsService = (*RobotsService)(nil)

// RobotsService fetches and parses robots.txt files.
type RobotsService struct {
	client *http.Client
}

// NewRobotsService creates a RobotsService. If client is nil,
// http.DefaultClient is used.
func NewRobotsService(client *http.Client) *RobotsService {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsService{client: client}
}

// FetchRobots returns the robots.txt policy for userAgent on the site of
// siteURL. A robots.txt that cannot be fetched or returns 4xx allows
// everything; a 5xx response disallows everything.
func (s *RobotsService) FetchRobots(ctx context.Context, siteURL, userAgent string) (seoaudit.RobotsPolicy, error) {
	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		return nil, seoaudit.Errorf(seoaudit.EINVALID, "invalid site URL %q", siteURL)
	}
	robotsURL := (&url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/robots.txt"}).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return seoaudit.AllowAll{}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil && !errors.Is(err, io.EOF) {
		return seoaudit.AllowAll{}, nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return seoaudit.AllowAll{}, nil
	}
	return &RobotsPolicy{group: data.FindGroup(userAgent)}, nil
}

// RobotsPolicy applies one robots.txt group to URLs.
type RobotsPolicy struct {
	group *robotstxt.Group
}

// Allowed reports whether the group permits fetching rawURL.
func (p *RobotsPolicy) Allowed(rawURL string) bool {
	if p == nil || p.group == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return p.group.Test(path)
}
