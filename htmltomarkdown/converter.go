// Package htmltomarkdown renders extracted page content as Markdown, the
// form in which page text is stored and handed to the advisor.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/seoaudit"
)

var _ seoaudit.Converter = (*Converter)(nil)

var (
	imageRe      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Converter wraps html-to-markdown.
type Converter struct {
	conv       *converter.Converter
	keepImages bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithImages keeps image references in the output. They are dropped by
// default since they cost tokens and carry no prose.
func WithImages() Option {
	return func(c *Converter) { c.keepImages = true }
}

// NewConverter creates a new Converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", seoaudit.Errorf(seoaudit.EINVALID, "empty HTML input")
	}

	md, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	if !c.keepImages {
		md = imageRe.ReplaceAllString(md, "")
	}
	md = blankLinesRe.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md), nil
}
