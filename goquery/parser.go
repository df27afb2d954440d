// Package goquery implements seoaudit.PageParser on top of goquery.
package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/seoaudit"
	"golang.org/x/net/html"
)

// Ensure Parser implements seoaudit.PageParser at compile time.
var _ seoaudit.PageParser = (*Parser)(nil)

// boilerplate lists elements dropped before measuring the main text.
var boilerplate = strings.Join([]string{
	"script", "style", "noscript", "template",
	"nav", "footer", "header", "[role=navigation]",
	".menu", ".sidebar", ".cookie", ".advert", ".ad", ".ads", ".banner",
}, ", ")

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// blockElements start a new text block.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "li": true, "main": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// Parser extracts SEO facts from HTML documents.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses an HTML document fetched from pageURL.
func (p *Parser) Parse(pageURL, rawHTML string) (*seoaudit.ParsedPage, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, seoaudit.Errorf(seoaudit.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, seoaudit.Errorf(seoaudit.EINVALID, "failed to parse HTML: %v", err)
	}

	page := &seoaudit.ParsedPage{
		Title:       collapse(doc.Find("title").First().Text()),
		Description: strings.TrimSpace(metaContent(doc, "description")),
		RobotsMeta:  strings.ToLower(strings.TrimSpace(metaContent(doc, "robots"))),
		Viewport:    strings.TrimSpace(metaContent(doc, "viewport")),
		Canonical:   canonical(doc, base),
	}

	h1s := doc.Find("h1")
	page.H1Count = h1s.Length()
	if page.H1Count > 0 {
		page.H1 = collapse(h1s.First().Text())
	}

	doc.Find("script[type]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t, _ := s.Attr("type")
		if mediaType(t) == "application/ld+json" {
			page.HasLDJSON = true
			return false
		}
		return true
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		page.Images = append(page.Images, seoaudit.Image{Src: src, Alt: alt})
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if u := resolveURL(base, href); u != "" {
			page.Links = append(page.Links, u)
		}
	})

	doc.Find(boilerplate).Remove()
	content := doc.Find("main").First()
	if content.Length() == 0 {
		content = doc.Find("article").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		content = doc.Selection
	}

	blocks := textBlocks(content)
	page.Text = strings.Join(blocks, "\n\n")
	page.WordCount = len(wordRe.FindAllStringIndex(page.Text, -1))

	content.Find("p").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) != "" {
			page.ParagraphCount++
		}
	})
	if page.ParagraphCount == 0 {
		page.ParagraphCount = len(blocks)
	}

	return page, nil
}

// metaContent returns the content of the first <meta> whose name matches
// case-insensitively.
func metaContent(doc *goquery.Document, name string) string {
	var content string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n, _ := s.Attr("name")
		if strings.EqualFold(strings.TrimSpace(n), name) {
			content, _ = s.Attr("content")
			return false
		}
		return true
	})
	return content
}

func canonical(doc *goquery.Document, base *url.URL) string {
	var href string
	doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		for _, r := range strings.Fields(rel) {
			if strings.EqualFold(r, "canonical") {
				href, _ = s.Attr("href")
				return false
			}
		}
		return true
	})
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	u.Fragment = ""
	return u.String()
}

// resolveURL resolves href against base, dropping the fragment.
// Returns "" for non-http(s) targets.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || isNonHTTPLink(href) {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}

func mediaType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// textBlocks returns the visible text of sel split into blocks at block
// element boundaries, with whitespace collapsed.
func textBlocks(sel *goquery.Selection) []string {
	var sb strings.Builder
	for _, n := range sel.Nodes {
		writeText(&sb, n)
	}
	var blocks []string
	for _, b := range strings.Split(sb.String(), "\n\n") {
		if b = collapse(b); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(" ")
		sb.WriteString(collapse(n.Data))
		sb.WriteString(" ")
		return
	case html.CommentNode:
		return
	}
	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		sb.WriteString("\n\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
	if block {
		sb.WriteString("\n\n")
	}
}
