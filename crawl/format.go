package crawl

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ComputeHash returns the xxhash of content with whitespace collapsed, so
// pages differing only in formatting hash the same.
func ComputeHash(content string) string {
	normalized := strings.Join(strings.Fields(content), " ")
	return fmt.Sprintf("%x", xxhash.Sum64String(normalized))
}

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatTokens formats token count in human-readable form.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}

// FormatScore renders a 0-100 score with a coarse grade.
func FormatScore(score int) string {
	switch {
	case score >= 80:
		return fmt.Sprintf("%d (good)", score)
	case score >= 50:
		return fmt.Sprintf("%d (fair)", score)
	default:
		return fmt.Sprintf("%d (poor)", score)
	}
}
