// Package extractor wraps an external media extraction tool behind a small
// interface so resolvers can be tested without the binary installed.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"os"

	"stream-resolver-go/pkg/types"
)

// ErrRecordingUnavailable means the live recording backing the URL is not
// retrievable; callers may retry against a VOD variant or an archive mirror.
var ErrRecordingUnavailable = errors.New("recording unavailable")

// ErrGeoRestricted means the extractor reported a geographic or availability
// block.
var ErrGeoRestricted = errors.New("content geo-restricted or unavailable")

// Config carries the per-invocation extractor options.
type Config struct {
	// FormatExpr is the format selection expression passed to the tool.
	FormatExpr string
	// Quiet suppresses the tool's progress output.
	Quiet bool
	// NoCheckCertificates disables upstream TLS verification.
	NoCheckCertificates bool
	// SkipDownload asks for metadata only; media is never written to disk.
	SkipDownload bool
	// NoCacheDir disables the tool's on-disk cache.
	NoCacheDir bool
	// GeoBypassCountry is a two-letter code for geo-bypass spoofing.
	GeoBypassCountry string
	// Clients restricts extraction to the named platform clients.
	Clients []string
	// DisabledClients are platform clients excluded from extraction.
	DisabledClients []string
	// ForceIPv4 forces the tool's connections over IPv4.
	ForceIPv4 bool
	// CookieFile is a Netscape-format cookie jar; ignored when invalid.
	CookieFile string
	// Retries is the tool's retry count for transient failures.
	Retries int
}

// Result is the parsed extractor output for a single video.
type Result struct {
	Formats   []types.Format
	Title     string
	Thumbnail string
}

// Extractor resolves a platform URL into candidate formats.
type Extractor interface {
	Extract(ctx context.Context, url string, cfg Config) (*Result, error)
}

// validCookieFile reports whether path names a readable Netscape cookie jar.
// Real jars are tab-separated with seven fields per cookie; anything with
// fewer than six tabs is junk and silently ignored rather than passed on to
// the tool, which would fail the whole extraction over it.
func validCookieFile(path string) bool {
	if path == "" {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Count(data, []byte("\t")) >= 6
}
