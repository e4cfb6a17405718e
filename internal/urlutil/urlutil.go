// Package urlutil classifies URLs for the evidence pipeline: homepage
// detection, article-path quality scoring, and domain extraction.
package urlutil

import (
	"net/url"
	"strings"
	"unicode"
)

// categoryWords are path segments that name a generic site section rather
// than an article. A URL whose only path segment is one of these points at
// a section index, not a story.
var categoryWords = map[string]struct{}{
	"home": {}, "index": {}, "main": {}, "default": {}, "welcome": {},
	"news": {}, "latest": {}, "breaking": {},
	"sport": {}, "sports": {}, "athletic": {}, "athletics": {},
	"technology": {}, "tech": {}, "science": {},
	"politics": {}, "business": {}, "world": {}, "opinion": {}, "health": {},
	"entertainment": {}, "lifestyle": {}, "travel": {}, "culture": {},
	"local": {}, "national": {}, "international": {},
	"about": {}, "contact": {}, "search": {}, "sitemap": {},
	"fact-check": {}, "factcheck": {},
}

// genericPlurals are trailing segments that look long enough to be article
// IDs but are actually listing pages.
var genericPlurals = map[string]struct{}{
	"news": {}, "articles": {}, "stories": {}, "posts": {}, "topics": {}, "pages": {},
}

// Domain returns the lowercase host of rawURL with any leading "www."
// stripped. Returns "" when the URL cannot be parsed or has no host.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// pathSegments splits the URL path into non-empty segments and reports
// whether the path carried a trailing slash.
func pathSegments(u *url.URL) (segs []string, trailingSlash bool) {
	p := strings.Trim(u.Path, "/")
	trailingSlash = strings.HasSuffix(u.Path, "/") && u.Path != "/"
	if p == "" {
		return nil, trailingSlash
	}
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs, trailingSlash
}

// looksLikeArticleID reports whether a path segment plausibly identifies a
// single article: at least 6 chars of letters, digits, hyphens or
// underscores, and not a generic listing word.
func looksLikeArticleID(seg string) bool {
	if len(seg) < 6 {
		return false
	}
	if _, generic := genericPlurals[strings.ToLower(seg)]; generic {
		return false
	}
	for _, r := range seg {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// IsHomepage reports whether rawURL points at a site root or a generic
// section page rather than an individual article. Unparseable URLs are
// treated as homepages so they get filtered out of evidence.
func IsHomepage(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	segs, trailingSlash := pathSegments(u)
	switch len(segs) {
	case 0:
		return true
	case 1:
		_, generic := categoryWords[strings.ToLower(segs[0])]
		return generic
	case 2:
		if trailingSlash {
			return !looksLikeArticleID(segs[1])
		}
	}
	return false
}

// Quality scores how article-like a URL's path is, in [0,1]. Homepages
// score 0. Deeper paths and ID-like trailing segments score higher.
func Quality(rawURL string) float64 {
	if IsHomepage(rawURL) {
		return 0.0
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0.5
	}
	segs, _ := pathSegments(u)
	switch {
	case len(segs) >= 3:
		return 1.0
	case len(segs) == 2:
		if looksLikeArticleID(segs[1]) {
			return 0.9
		}
		return 0.3
	case len(segs) == 1:
		if _, generic := categoryWords[strings.ToLower(segs[0])]; generic {
			return 0.2
		}
		return 0.6
	}
	return 0.5
}
