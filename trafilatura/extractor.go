// Package trafilatura extracts the main content of marketing and article
// pages with go-trafilatura.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/fwojciec/seoaudit"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ seoaudit.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura. Comments and images are dropped because
// only the prose is sent to the advisor.
type Extractor struct {
	opts trafilatura.Options
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		opts: trafilatura.Options{
			EnableFallback:  true,
			ExcludeComments: true,
			IncludeImages:   false,
			IncludeLinks:    false,
			Deduplicate:     true,
		},
	}
}

// Extract returns the main content of rawHTML.
func (e *Extractor) Extract(rawHTML string) (*seoaudit.ExtractResult, error) {
	return e.ExtractURL(rawHTML, "")
}

// ExtractURL is like Extract but tells trafilatura where the page came from,
// which improves metadata and relative link handling.
func (e *Extractor) ExtractURL(rawHTML, pageURL string) (*seoaudit.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, seoaudit.Errorf(seoaudit.EINVALID, "empty HTML input")
	}

	opts := e.opts
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			opts.OriginalURL = u
		}
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, seoaudit.Errorf(seoaudit.EUNAVAILABLE, "no main content: %v", err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return nil, err
		}
		contentHTML = buf.String()
	}

	return &seoaudit.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}
