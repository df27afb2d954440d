package mock

import "github.com/fwojciec/seoaudit"

var (
	_ seoaudit.PageParser = (*PageParser)(nil)
	_ seoaudit.Extractor  = (*Extractor)(nil)
	_ seoaudit.Converter  = (*Converter)(nil)
)

// PageParser is a mock implementation of seoaudit.PageParser.
type PageParser struct {
	ParseFn func(pageURL, html string) (*seoaudit.ParsedPage, error)
}

func (p *PageParser) Parse(pageURL, html string) (*seoaudit.ParsedPage, error) {
	return p.ParseFn(pageURL, html)
}

// Extractor is a mock implementation of seoaudit.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*seoaudit.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*seoaudit.ExtractResult, error) {
	return e.ExtractFn(html)
}

// Converter is a mock implementation of seoaudit.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
