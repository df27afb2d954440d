package seoaudit

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	Extract(html string) (*ExtractResult, error)
}

// Image is an <img> element found on a page.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// ParsedPage holds the SEO-relevant facts extracted from one HTML document.
type ParsedPage struct {
	Title       string
	Description string
	RobotsMeta  string // lowercased content of <meta name="robots">
	Canonical   string // absolute canonical URL, empty if absent
	H1          string // text of the first <h1>
	H1Count     int
	Viewport    string
	HasLDJSON   bool
	Images      []Image

	// Links are absolute http(s) URLs without fragments, in document order.
	// Duplicates are preserved so callers can count anchors.
	Links []string

	// Text is the visible main content text with boilerplate removed.
	Text           string
	WordCount      int
	ParagraphCount int
}

// PageParser parses HTML documents into SEO facts.
type PageParser interface {
	// Parse parses html fetched from pageURL.
	// pageURL is used to resolve relative links and the canonical URL.
	Parse(pageURL, html string) (*ParsedPage, error)
}
