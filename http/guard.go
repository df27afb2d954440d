package http

import (
	"context"
	"net"
	"net/netip"
	"net/url"
	"syscall"

	"github.com/fwojciec/seoaudit"
)

// ReasonHostChanged is reported when a redirect leaves the registrable
// domain of the requested URL or points at a private address.
const ReasonHostChanged = seoaudit.ReasonHostChanged

var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"),
	netip.MustParsePrefix("64:ff9b::/96"),
}

// Guard refuses connections to non-public addresses.
type Guard struct {
	// AllowPrivate disables all address checks.
	AllowPrivate bool

	// Resolver is used by CheckURL. Defaults to net.DefaultResolver.
	Resolver *net.Resolver
}

// CheckAddr returns EFORBIDDEN if addr is not a public unicast address.
func (g *Guard) CheckAddr(addr netip.Addr) error {
	if g.AllowPrivate {
		return nil
	}
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsUnspecified(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast():
		return seoaudit.Errorf(seoaudit.EFORBIDDEN, "refusing non-public address %s", addr)
	}
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return seoaudit.Errorf(seoaudit.EFORBIDDEN, "refusing reserved address %s", addr)
		}
	}
	return nil
}

// CheckURL resolves the URL's host and checks every address it maps to.
// It is used before handing a URL to a fetcher that dials on its own,
// such as a headless browser.
func (g *Guard) CheckURL(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return seoaudit.Errorf(seoaudit.EINVALID, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return seoaudit.Errorf(seoaudit.EINVALID, "unsupported scheme %q", u.Scheme)
	}
	if g.AllowPrivate {
		return nil
	}
	host := u.Hostname()
	if addr, err := netip.ParseAddr(host); err == nil {
		return g.CheckAddr(addr)
	}
	r := g.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		if err := g.CheckAddr(addr); err != nil {
			return err
		}
	}
	return nil
}

// Control is a net.Dialer Control hook. It runs after DNS resolution,
// so the address checked is the one actually dialed.
func (g *Guard) Control(_, address string, _ syscall.RawConn) error {
	if g.AllowPrivate {
		return nil
	}
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return seoaudit.Errorf(seoaudit.EFORBIDDEN, "unparseable dial address %q", address)
	}
	return g.CheckAddr(ap.Addr())
}
