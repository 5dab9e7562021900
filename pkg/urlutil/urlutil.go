// Package urlutil provides URL manipulation helpers that preserve the
// original encoding of upstream URLs.
package urlutil

import (
	"net/url"
	"strings"
)

// ResolveAgainst resolves a possibly relative URL against a base URL using
// string manipulation. url.ResolveReference re-encodes special characters,
// which breaks CDNs that sign paths containing parentheses or brackets.
func ResolveAgainst(raw string, baseURL string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}

	// Base directory: strip query and last path segment.
	base := baseURL
	if idx := strings.Index(base, "?"); idx > 0 {
		base = base[:idx]
	}
	if lastSlash := strings.LastIndex(base, "/"); lastSlash > 0 {
		base = base[:lastSlash+1]
	}

	if strings.HasPrefix(raw, "/") {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return base + raw
		}
		return parsed.Scheme + "://" + parsed.Host + raw
	}

	for strings.HasPrefix(raw, "../") {
		raw = raw[3:]
		base = strings.TrimSuffix(base, "/")
		if lastSlash := strings.LastIndex(base, "/"); lastSlash > 0 {
			base = base[:lastSlash+1]
		}
	}

	return base + raw
}

// SchemeHost extracts scheme://host from a URL, or "" when unparseable.
func SchemeHost(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// Host returns the host portion of a URL, lowercased, without port.
func Host(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
