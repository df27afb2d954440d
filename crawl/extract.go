package crawl

import (
	"strings"

	"github.com/fwojciec/seoaudit"
)

var _ seoaudit.Extractor = (*FallbackExtractor)(nil)

// URLExtractor is implemented by extractors that use the page URL to
// resolve relative references.
type URLExtractor interface {
	ExtractURL(html, pageURL string) (*seoaudit.ExtractResult, error)
}

// FallbackExtractor tries Primary and falls back to Secondary when Primary
// fails or finds no content.
type FallbackExtractor struct {
	Primary   seoaudit.Extractor
	Secondary seoaudit.Extractor
}

// NewFallbackExtractor creates a FallbackExtractor.
func NewFallbackExtractor(primary, secondary seoaudit.Extractor) *FallbackExtractor {
	return &FallbackExtractor{Primary: primary, Secondary: secondary}
}

// Extract returns the first non-empty extraction.
func (e *FallbackExtractor) Extract(html string) (*seoaudit.ExtractResult, error) {
	return e.ExtractURL(html, "")
}

// ExtractURL is like Extract and passes pageURL to extractors that accept it.
func (e *FallbackExtractor) ExtractURL(html, pageURL string) (*seoaudit.ExtractResult, error) {
	res, err := extractWith(e.Primary, html, pageURL)
	if err == nil && strings.TrimSpace(res.ContentHTML) != "" {
		return res, nil
	}
	if e.Secondary == nil {
		return res, err
	}
	res2, err2 := extractWith(e.Secondary, html, pageURL)
	switch {
	case err2 == nil:
		return res2, nil
	case err == nil:
		return res, nil
	}
	return nil, err
}

func extractWith(ext seoaudit.Extractor, html, pageURL string) (*seoaudit.ExtractResult, error) {
	if ue, ok := ext.(URLExtractor); ok && pageURL != "" {
		return ue.ExtractURL(html, pageURL)
	}
	return ext.Extract(html)
}
