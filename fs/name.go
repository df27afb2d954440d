package fs

import (
	"net/url"
	"strings"

	"github.com/fwojciec/seoaudit"
)

// ReportName builds a file name for an audit report.
// Example: https://www.example.com/shop created 2026-03-01 15:04:05 UTC as md
// → www.example.com-20260301-150405.md
func ReportName(audit *seoaudit.Audit, format seoaudit.ReportFormat) string {
	return HostSlug(audit.StartURL) + "-" + audit.CreatedAt.UTC().Format("20060102-150405") + "." + string(format)
}

// HostSlug converts a URL to a file name safe slug of its host.
// Unparseable URLs and URLs without a host become "site".
func HostSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "site"
	}

	var b strings.Builder
	for _, r := range strings.ToLower(u.Hostname()) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
