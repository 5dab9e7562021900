package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"stream-resolver-go/pkg/extractor"
	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/platform"
	"stream-resolver-go/pkg/scraper"
	"stream-resolver-go/pkg/types"
)

// stubPlatform resolves through the real id extraction and format selection
// with a canned extractor result, so the full delegation path is exercised
// without network access.
type stubPlatform struct {
	result *extractor.Result
	calls  []string
}

func (s *stubPlatform) Resolve(_ context.Context, platformURL string) (*types.StreamDescriptor, error) {
	s.calls = append(s.calls, platformURL)

	videoID, ok := platform.ExtractVideoID(platformURL)
	if !ok {
		return nil, types.NewResolutionError(types.ReasonInvalidIdentifier, platformURL, nil)
	}
	best, ok := platform.SelectBestFormat(s.result.Formats, 0)
	if !ok {
		return nil, types.NewResolutionError(types.ReasonAllMethodsExhausted, platformURL, nil)
	}

	hint := types.ContainerProgressiveHTTP
	if best.IsManifest() {
		hint = types.ContainerHLS
	}
	return &types.StreamDescriptor{
		URL:             best.URL,
		ContainerHint:   hint,
		RequiredHeaders: map[string]string{},
		Title:           "Video " + videoID,
		Provenance:      types.Provenance{Strategy: types.StrategyExtractor, Validated: true},
	}, nil
}

type stubScraper struct {
	match scraper.Match
	err   error
}

func (s *stubScraper) ResolveStream(context.Context, string, scraper.FetchOptions) (scraper.Match, error) {
	return s.match, s.err
}

func TestResolvePlatformShortLink(t *testing.T) {
	plat := &stubPlatform{
		result: &extractor.Result{
			Formats: []types.Format{
				{URL: "https://cdn/x.mp4", ACodec: "aac", VCodec: "h264", Height: 720},
			},
		},
	}
	p := New(plat, &stubScraper{}, logging.Discard())

	desc, err := p.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatal(err)
	}
	if desc.URL != "https://cdn/x.mp4" {
		t.Errorf("URL = %q", desc.URL)
	}
	if desc.ContainerHint != types.ContainerProgressiveHTTP {
		t.Errorf("hint = %v, want progressive", desc.ContainerHint)
	}
	if len(plat.calls) != 1 {
		t.Errorf("platform resolver called %d times, want 1", len(plat.calls))
	}
}

func TestResolveDirectNonPlatform(t *testing.T) {
	p := New(&stubPlatform{}, &stubScraper{}, logging.Discard())

	desc, err := p.Resolve(context.Background(), "https://cdn.example.com/live/index.m3u8")
	if err != nil {
		t.Fatal(err)
	}
	if desc.URL != "https://cdn.example.com/live/index.m3u8" {
		t.Errorf("direct URL must pass through verbatim, got %q", desc.URL)
	}
	if desc.ContainerHint != types.ContainerHLS {
		t.Errorf("hint = %v, want hls", desc.ContainerHint)
	}
	if desc.Provenance.Strategy != types.StrategyDirect {
		t.Errorf("provenance = %+v", desc.Provenance)
	}
	if desc.Title == "" {
		t.Error("title must get a placeholder")
	}
}

func TestResolveScrapedPageToStream(t *testing.T) {
	p := New(&stubPlatform{}, &stubScraper{
		match: scraper.Match{URL: "https://edge.example.com/found.m3u8", Kind: scraper.KindStream},
	}, logging.Discard())

	desc, err := p.Resolve(context.Background(), "https://example.com/watch.php?id=42")
	if err != nil {
		t.Fatal(err)
	}
	if desc.URL != "https://edge.example.com/found.m3u8" {
		t.Errorf("URL = %q", desc.URL)
	}
	if desc.Provenance.Strategy != types.StrategyScrape {
		t.Errorf("provenance = %+v", desc.Provenance)
	}
}

// A scraped platform URL is redelegated exactly once, never re-scraped.
func TestResolveScrapedPlatformRedelegation(t *testing.T) {
	plat := &stubPlatform{
		result: &extractor.Result{
			Formats: []types.Format{{URL: "https://cdn/plat.mp4", ACodec: "aac", VCodec: "h264", Height: 480}},
		},
	}
	p := New(plat, &stubScraper{
		match: scraper.Match{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Kind: scraper.KindPlatform},
	}, logging.Discard())

	desc, err := p.Resolve(context.Background(), "https://example.com/embed.php?ch=1")
	if err != nil {
		t.Fatal(err)
	}
	if desc.URL != "https://cdn/plat.mp4" {
		t.Errorf("URL = %q", desc.URL)
	}
	if len(plat.calls) != 1 || plat.calls[0] != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("platform calls = %v", plat.calls)
	}
}

func TestResolveFailureReasons(t *testing.T) {
	tests := []struct {
		name     string
		scrapErr error
		expected types.FailureReason
	}{
		{"no pattern matched", scraper.ErrNoStream, types.ReasonNoStreamFound},
		{"network failure", scraper.ErrFetchFailed, types.ReasonFetchFailed},
		{"wrapped transport error", fmt.Errorf("fetching: %w", scraper.ErrFetchFailed), types.ReasonFetchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&stubPlatform{}, &stubScraper{err: tt.scrapErr}, logging.Discard())
			_, err := p.Resolve(context.Background(), "https://example.com/page.html")
			if err == nil {
				t.Fatal("expected a typed failure")
			}
			if got := types.ReasonOf(err); got != tt.expected {
				t.Errorf("reason = %q, want %q", got, tt.expected)
			}
			var re *types.ResolutionError
			if !errors.As(err, &re) {
				t.Error("raw errors must not escape the pipeline")
			}
		})
	}
}
