// Package scraper fetches web pages and extracts stream URLs from their
// HTML by applying an ordered list of pattern rules.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"

	"stream-resolver-go/pkg/httpclient"
	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/urlutil"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBodySize bounds how much of a page is read; stream pages are small and
// anything larger is not worth pattern-matching.
const maxBodySize = 10 << 20

// FetchOptions controls a single page fetch.
type FetchOptions struct {
	// BypassCache skips the shared cache for volatile targets such as the
	// live stream page itself; listing pages stay cacheable.
	BypassCache bool
	// Headers are added to the request, overriding the defaults.
	Headers map[string]string
}

// Scraper fetches HTML with TTL caching and extracts stream URLs. The cache
// is instance state, shared by reference wherever the scraper is injected.
type Scraper struct {
	client  *httpclient.Client
	log     *logging.Logger
	cache   *pageCache
	rules   []Rule
	timeout time.Duration
}

// New creates a Scraper with the given cache TTL and per-fetch timeout.
func New(client *httpclient.Client, log *logging.Logger, ttl, timeout time.Duration) *Scraper {
	return &Scraper{
		client:  client,
		log:     log.WithComponent("scraper"),
		cache:   newPageCache(ttl),
		rules:   defaultRules,
		timeout: timeout,
	}
}

// Close stops the cache sweep goroutine.
func (s *Scraper) Close() {
	s.cache.stop()
}

// Fetch retrieves a page body, consulting the cache first. A network failure
// returns an empty string; it is logged here and must not be retried at this
// layer.
func (s *Scraper) Fetch(ctx context.Context, url string, opts FetchOptions) string {
	if !opts.BypassCache {
		if body, ok := s.cache.get(url); ok {
			s.log.Debug("cache hit", "url", url)
			return body
		}
	}

	body, err := s.fetch(ctx, url, opts.Headers)
	if err != nil {
		s.log.Warn("page fetch failed", "url", url, "error", err)
		return ""
	}

	if !opts.BypassCache {
		s.cache.put(url, body)
	}
	return body
}

// Evict removes a URL from the cache.
func (s *Scraper) Evict(url string) {
	s.cache.evict(url)
}

func (s *Scraper) fetch(ctx context.Context, url string, headers map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", err
	}

	return decodeBody(raw), nil
}

// decodeBody interprets the payload as UTF-8, falling back to Latin-1 when
// the bytes are not valid UTF-8. Sites in the wild still serve ISO-8859-1
// without declaring it.
func decodeBody(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// ExtractStream applies the ordered rules to page HTML, first match wins.
// Returns false when nothing matched: a legitimate "could not resolve", not
// an error.
func (s *Scraper) ExtractStream(html string) (Match, bool) {
	for _, rule := range s.rules {
		groups := rule.Pattern.FindStringSubmatch(html)
		if groups == nil {
			continue
		}
		extracted := groups[1]
		if rule.Build != nil {
			extracted = rule.Build(groups)
		}
		s.log.Debug("extraction rule matched", "rule", rule.Name, "url", extracted)
		return Match{URL: extracted, Kind: rule.Kind}, true
	}

	if src, ok := extractVideoTag(html); ok {
		s.log.Debug("extraction rule matched", "rule", "video-tag", "url", src)
		return Match{URL: src, Kind: KindStream}, true
	}

	return Match{}, false
}

// ErrFetchFailed marks a network-level failure retrieving the page, as
// opposed to a page that fetched fine but matched nothing.
var ErrFetchFailed = errors.New("page fetch failed")

// ErrNoStream means the page was readable but no extraction rule matched.
var ErrNoStream = errors.New("no stream found in page")

// ResolveStream fetches a page and extracts a stream or platform URL,
// following at most one intermediate player-config indirection. Relative
// URLs are resolved against the page URL.
func (s *Scraper) ResolveStream(ctx context.Context, pageURL string, opts FetchOptions) (Match, error) {
	html := s.Fetch(ctx, pageURL, opts)
	if html == "" {
		return Match{}, ErrFetchFailed
	}

	match, ok := s.ExtractStream(html)
	if !ok {
		return Match{}, ErrNoStream
	}
	match.URL = urlutil.ResolveAgainst(match.URL, pageURL)

	if match.Kind != KindIntermediate {
		return match, nil
	}

	// Player-config files are volatile; never cache them.
	body := s.Fetch(ctx, match.URL, FetchOptions{BypassCache: true, Headers: opts.Headers})
	if body == "" {
		return Match{}, ErrFetchFailed
	}
	inner, ok := s.ExtractStream(body)
	if !ok || inner.Kind == KindIntermediate {
		return Match{}, ErrNoStream
	}
	inner.URL = urlutil.ResolveAgainst(inner.URL, match.URL)
	return inner, nil
}

// extractVideoTag pulls the src attribute from the first <video> or nested
// <source> element.
func extractVideoTag(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	var found string
	doc.Find("video").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if src, ok := sel.Attr("src"); ok && src != "" {
			found = src
			return false
		}
		if src, ok := sel.Find("source").Attr("src"); ok && src != "" {
			found = src
			return false
		}
		return true
	})

	return found, found != ""
}
