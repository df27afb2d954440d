package seoaudit

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Scope decides which discovered links count as internal.
type Scope string

const (
	// ScopeHost keeps the crawl on the exact start host.
	ScopeHost Scope = "host"
	// ScopeRegistrable keeps the crawl on the start URL's eTLD+1,
	// so www.example.com and blog.example.com are both internal.
	ScopeRegistrable Scope = "registrable"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeHost || s == ScopeRegistrable
}

// Contains reports whether rawURL falls within the scope of seedURL.
func (s Scope) Contains(seedURL, rawURL string) bool {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	seedHost := strings.ToLower(seed.Hostname())
	host := strings.ToLower(u.Hostname())
	if seedHost == "" || host == "" {
		return false
	}
	if s == ScopeHost {
		return host == seedHost
	}
	return RegistrableDomain(host) == RegistrableDomain(seedHost)
}

// ReasonHostChanged is reported when a fetch ends outside the registrable
// domain of the requested URL or at a private address.
const ReasonHostChanged = "host_changed_outside_etld1_or_private"

// RegistrableDomain returns the eTLD+1 of host. IP addresses, single-label
// hosts and hosts that are themselves public suffixes are returned as-is.
func RegistrableDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(strings.Trim(host, "[]")) != nil {
		return host
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}
