package mock

import (
	"context"

	"github.com/fwojciec/seoaudit"
)

var _ seoaudit.URLFrontier = (*URLFrontier)(nil)

// URLFrontier is a mock implementation of seoaudit.URLFrontier.
type URLFrontier struct {
	PushFn func(u seoaudit.QueuedURL) bool
	PopFn  func() (seoaudit.QueuedURL, bool)
	LenFn  func() int
	SeenFn func(url string) bool
}

func (f *URLFrontier) Push(u seoaudit.QueuedURL) bool {
	return f.PushFn(u)
}

func (f *URLFrontier) Pop() (seoaudit.QueuedURL, bool) {
	return f.PopFn()
}

func (f *URLFrontier) Len() int {
	return f.LenFn()
}

func (f *URLFrontier) Seen(url string) bool {
	return f.SeenFn(url)
}

var _ seoaudit.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of seoaudit.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, host string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, host string) error {
	return l.WaitFn(ctx, host)
}
