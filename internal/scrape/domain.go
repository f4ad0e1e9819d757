package scrape

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RegisteredDomain returns the registrable domain of rawURL, e.g.
// "example.com" for "https://blog.example.com/x" and "example.co.uk" for
// "www.example.co.uk". Hosts under a TLD the public suffix list does not
// know, such as "a.example", reduce to that last label ("example"). IPs
// and single-label hosts fall back to the lowercase hostname. Unparseable
// input yields "".
func RegisteredDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return ""
	}
	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return host
	}
	// An unlisted TLD matches the list's default "*" rule, which would make
	// every two-label host its own site.
	if suffix, icann := publicsuffix.PublicSuffix(host); !icann && !strings.Contains(suffix, ".") {
		return suffix
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return etld1
}

// SameSite reports whether link shares start's registered domain.
func SameSite(start, link string) bool {
	d := RegisteredDomain(start)
	return d != "" && d == RegisteredDomain(link)
}
