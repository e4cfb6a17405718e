// Package credibility matches evidence URLs against a configured allowlist
// of trusted news and fact-checking domains.
package credibility

import (
	"strings"

	"github.com/veracify/veracify/internal/urlutil"
)

// Checker answers whether a URL belongs to a credible domain.
type Checker struct {
	domains map[string]struct{}
}

// NewChecker builds a checker from an allowlist of bare domains
// (e.g. "reuters.com"). Matching includes subdomains.
func NewChecker(domains []string) *Checker {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return &Checker{domains: set}
}

// IsCredible reports whether the URL's host is in the allowlist or is a
// subdomain of an allowlisted entry.
func (c *Checker) IsCredible(rawURL string) bool {
	host := urlutil.Domain(rawURL)
	if host == "" {
		return false
	}
	if _, ok := c.domains[host]; ok {
		return true
	}
	for d := range c.domains {
		if strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Len returns the number of allowlisted domains.
func (c *Checker) Len() int {
	return len(c.domains)
}
