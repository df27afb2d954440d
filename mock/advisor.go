package mock

import (
	"context"

	"github.com/fwojciec/seoaudit"
)

var _ seoaudit.Advisor = (*Advisor)(nil)

// Advisor is a mock implementation of seoaudit.Advisor.
type Advisor struct {
	AdviseFn func(ctx context.Context, req seoaudit.AdviceRequest) (*seoaudit.Advice, error)
}

func (a *Advisor) Advise(ctx context.Context, req seoaudit.AdviceRequest) (*seoaudit.Advice, error) {
	return a.AdviseFn(ctx, req)
}

var _ seoaudit.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of seoaudit.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return tc.CountTokensFn(ctx, text)
}
