// Package classify decides whether a bare input string already denotes a raw
// media stream or a web page that must be scraped. Classification is a pure
// string decision: no network access, deterministic for a given input.
package classify

import (
	"net/url"
	"strings"

	"stream-resolver-go/pkg/urlutil"
)

// Kind is the classification outcome.
type Kind int

const (
	// DirectStream means the input can be handed to playback (or to the
	// platform resolver) without scraping any HTML.
	DirectStream Kind = iota
	// WebPage means the input must be fetched and scraped for a stream URL.
	WebPage
)

func (k Kind) String() string {
	if k == DirectStream {
		return "direct-stream"
	}
	return "web-page"
}

// Video platform hosts handled by the platform resolver. These are
// classified DirectStream so they are never fed to the HTML scraper.
var platformHosts = []string{
	"youtube.com",
	"youtu.be",
	"youtube-nocookie.com",
}

var mediaExtensions = []string{
	".m3u8", ".mp4", ".ts", ".flv", ".mpd", ".avi", ".mov", ".mkv",
}

var streamingSchemes = []string{
	"rtmp://", "rtmps://", "rtsp://", "udp://", "mms://",
}

var pageIndicators = []string{
	".html", ".htm", ".php", ".asp", ".aspx", "/index", "/main", "?page=", "?id=",
}

var streamingKeywords = []string{
	"/live/", "/hls/", "/dash/", "m3u8", "manifest", "chunklist", "segment",
}

var tokenParams = []string{
	"token=", "key=", "signature=", "exp=",
}

// Classify applies the canonical decision order, first match wins:
// platform domain, media extension, streaming scheme, indicator-free
// http(s) URL, streaming keyword, signed-token query, query-only URL,
// otherwise WebPage.
func Classify(raw string) Kind {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return WebPage
	}

	if IsPlatformURL(lower) {
		return DirectStream
	}

	parsed, err := url.Parse(lower)
	if err != nil {
		return WebPage
	}
	path := parsed.Path
	query := parsed.RawQuery

	for _, ext := range mediaExtensions {
		if strings.HasSuffix(path, ext) {
			return DirectStream
		}
	}

	for _, scheme := range streamingSchemes {
		if strings.HasPrefix(lower, scheme) {
			return DirectStream
		}
	}

	isHTTP := strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")

	if isHTTP && !containsAny(lower, pageIndicators) {
		return DirectStream
	}

	if containsAny(path, streamingKeywords) || containsAny(query, streamingKeywords) {
		return DirectStream
	}

	// Tokenized URLs are usually pre-signed media links, not pages.
	if containsAny(query, tokenParams) {
		return DirectStream
	}

	if isHTTP && query != "" && (path == "" || path == "/") {
		return DirectStream
	}

	return WebPage
}

// IsPlatformURL reports whether the URL belongs to a video platform handled
// by the platform resolver.
func IsPlatformURL(raw string) bool {
	host := urlutil.Host(raw)
	if host == "" {
		return false
	}
	for _, ph := range platformHosts {
		if host == ph || strings.HasSuffix(host, "."+ph) {
			return true
		}
	}
	return false
}

// ContainerHintName infers a transport tag for a direct URL from its
// extension and path keywords. Returned values match types.ContainerHint.
func ContainerHintName(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, ".m3u8") || strings.Contains(lower, "/hls/") || strings.Contains(lower, "chunklist"):
		return "hls"
	case strings.Contains(lower, ".mpd") || strings.Contains(lower, "/dash/"):
		return "dash"
	case strings.HasPrefix(lower, "rtmp://") || strings.HasPrefix(lower, "rtmps://"):
		return "rtmp"
	default:
		return "progressive"
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
