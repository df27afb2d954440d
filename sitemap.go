package seoaudit

import (
	"context"
	"fmt"
	"regexp"
)

// SitemapService discovers URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs finds all URLs from a site's sitemap.
	// It first checks robots.txt for sitemap directives, then falls back
	// to /sitemap.xml. Sitemap indexes are resolved recursively.
	//
	// The filter can be used to include/exclude URLs by pattern.
	// If filter is nil, all URLs are returned.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// NewURLFilter compiles include and exclude expressions into a filter.
// Empty expressions are ignored. Returns nil when both are empty.
func NewURLFilter(include, exclude string) (*URLFilter, error) {
	if include == "" && exclude == "" {
		return nil, nil
	}
	f := &URLFilter{}
	if include != "" {
		re, err := regexp.Compile(include)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid include pattern %q: %v", include, err)
		}
		f.Include = append(f.Include, re)
	}
	if exclude != "" {
		re, err := regexp.Compile(exclude)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid exclude pattern %q: %v", exclude, err)
		}
		f.Exclude = append(f.Exclude, re)
	}
	return f, nil
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}

// String describes the filter for logs.
func (f *URLFilter) String() string {
	if f == nil {
		return "none"
	}
	return fmt.Sprintf("include=%v exclude=%v", f.Include, f.Exclude)
}
