package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/seoaudit"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (*seoaudit.Response, error)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// RetryDelay is the pause between fetch attempts.
const RetryDelay = 1200 * time.Millisecond

// DefaultRetryDelays returns the delays between the 3 fetch attempts.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{RetryDelay, RetryDelay}
}

// FetchWithRetry fetches a URL, retrying transport failures up to 3 attempts.
func FetchWithRetry(ctx context.Context, url string, fetch FetchFunc, logger LogFunc) (*seoaudit.Response, error) {
	return FetchWithRetryDelays(ctx, url, fetch, logger, DefaultRetryDelays())
}

// FetchWithRetryDelays is like FetchWithRetry but allows configurable delays.
// HTTP error statuses are responses, not failures, and are never retried.
// Neither are guard rejections and invalid URLs.
func FetchWithRetryDelays(ctx context.Context, url string, fetch FetchFunc, logger LogFunc, delays []time.Duration) (*seoaudit.Response, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := fetch(ctx, url)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) || attempt >= maxAttempts-1 {
			break
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if logger != nil {
			logger("  retry %s (attempt %d): %v", url, attempt+2, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}

func retryable(err error) bool {
	switch seoaudit.ErrorCode(err) {
	case seoaudit.EFORBIDDEN, seoaudit.EINVALID:
		return false
	}
	return true
}
