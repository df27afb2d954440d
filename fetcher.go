package seoaudit

import "context"

// Response is the outcome of fetching a single URL.
// HTTP error statuses are reported here rather than as errors so the
// crawler can record them as page results.
type Response struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	XRobotsTag  string
	Redirects   int

	// IsHTML reports whether the content type is text/html or application/xhtml+xml.
	IsHTML bool

	// Body holds the HTML document. It is only populated for 200 HTML responses
	// and may be truncated at the fetcher's size cap.
	Body string
}

// Fetcher retrieves pages from URLs.
type Fetcher interface {
	// Fetch retrieves the URL and returns the response.
	// An error means the resource could not be retrieved at all
	// (transport failure, guard rejection, cancellation).
	Fetch(ctx context.Context, url string) (*Response, error)

	// Close releases resources held by the fetcher.
	Close() error
}

// RobotsPolicy answers whether a URL may be crawled.
type RobotsPolicy interface {
	Allowed(url string) bool
}

// RobotsService retrieves the robots.txt policy of a site.
type RobotsService interface {
	// FetchRobots returns the policy that applies to userAgent on the site
	// of siteURL. Unreachable robots.txt files yield an allow-all policy.
	FetchRobots(ctx context.Context, siteURL, userAgent string) (RobotsPolicy, error)
}

// AllowAll is a RobotsPolicy that permits every URL.
type AllowAll struct{}

// Allowed always returns true.
func (AllowAll) Allowed(string) bool { return true }
