// Package readability extracts main content with go-readability. It backs
// up the trafilatura extractor on pages trafilatura cannot make sense of.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/seoaudit"
	"github.com/go-shiori/go-readability"
)

var _ seoaudit.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the readable content of rawHTML.
func (e *Extractor) Extract(rawHTML string) (*seoaudit.ExtractResult, error) {
	return e.ExtractURL(rawHTML, "")
}

// ExtractURL is like Extract but resolves relative URLs against pageURL.
func (e *Extractor) ExtractURL(rawHTML, pageURL string) (*seoaudit.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, seoaudit.Errorf(seoaudit.EINVALID, "empty HTML input")
	}

	var base *url.URL
	if pageURL != "" {
		base, _ = url.Parse(pageURL)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return nil, seoaudit.Errorf(seoaudit.EUNAVAILABLE, "no readable content: %v", err)
	}

	return &seoaudit.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
