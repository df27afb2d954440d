package seoaudit

import "context"

// QueuedURL is a URL waiting in the crawl frontier.
type QueuedURL struct {
	URL   string
	Depth int
}

// URLFrontier manages a crawl queue with deduplication.
type URLFrontier interface {
	// Push adds a URL to the frontier.
	// Returns false if the URL has already been seen.
	Push(u QueuedURL) bool

	// Pop returns the next URL, shallowest first.
	// Returns false if the frontier is empty.
	Pop() (QueuedURL, bool)

	// Len returns the number of URLs in the queue.
	Len() int

	// Seen returns true if the URL has been processed or queued.
	Seen(url string) bool
}

// DomainLimiter provides per-host politeness delays.
type DomainLimiter interface {
	// Wait blocks until a request to host is allowed.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, host string) error
}
