package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/seoaudit"
)

var _ seoaudit.Advisor = (*LoggingAdvisor)(nil)

// LoggingAdvisor wraps an Advisor with debug logging. Page text is never
// logged, only its length.
type LoggingAdvisor struct {
	next   seoaudit.Advisor
	logger *slog.Logger
}

// NewLoggingAdvisor creates a new LoggingAdvisor.
func NewLoggingAdvisor(next seoaudit.Advisor, logger *slog.Logger) *LoggingAdvisor {
	return &LoggingAdvisor{next: next, logger: logger}
}

// Advise delegates to the wrapped advisor and logs the operation.
func (a *LoggingAdvisor) Advise(ctx context.Context, req seoaudit.AdviceRequest) (advice *seoaudit.Advice, err error) {
	defer func(begin time.Time) {
		var items int
		if advice != nil {
			items = len(advice.Recommendations)
		}
		a.logger.Debug("advise",
			"url", req.URL,
			"chars", len(seoaudit.Excerpt(req.Text, seoaudit.DefaultExcerptLength)),
			"seo_score", req.Metrics.SEOScore,
			"recommendations", items,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Advise(ctx, req)
}
