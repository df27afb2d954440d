package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/seoaudit"
	"golang.org/x/time/rate"
)

var _ seoaudit.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter enforces a minimum delay between requests to the same host
// using one token bucket per host with a burst of 1. Requests to different
// hosts do not wait on each other.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// NewDomainLimiter creates a DomainLimiter allowing one request per delay
// to each host. A zero delay disables waiting.
func NewDomainLimiter(delay time.Duration) *DomainLimiter {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

// Wait blocks until a request to host is allowed.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, host string) error {
	if d.limit == rate.Inf {
		return ctx.Err()
	}

	d.mu.Lock()
	limiter, ok := d.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(d.limit, 1)
		d.limiters[host] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
