// Package pipeline orchestrates classification, scraping, and platform
// resolution into a single resolve call.
package pipeline

import (
	"context"
	"errors"

	"stream-resolver-go/pkg/classify"
	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/scraper"
	"stream-resolver-go/pkg/types"
)

// PlatformResolver resolves video-platform URLs. Satisfied by
// *platform.Resolver; an interface so pipeline tests can stub it.
type PlatformResolver interface {
	Resolve(ctx context.Context, platformURL string) (*types.StreamDescriptor, error)
}

// PageScraper resolves web pages into stream or platform URLs. Satisfied by
// *scraper.Scraper.
type PageScraper interface {
	ResolveStream(ctx context.Context, pageURL string, opts scraper.FetchOptions) (scraper.Match, error)
}

// Pipeline owns the priority and fallback policy across resolution paths.
type Pipeline struct {
	platform PlatformResolver
	scraper  PageScraper
	log      *logging.Logger
}

// New wires the pipeline.
func New(platform PlatformResolver, pageScraper PageScraper, log *logging.Logger) *Pipeline {
	return &Pipeline{
		platform: platform,
		scraper:  pageScraper,
		log:      log.WithComponent("pipeline"),
	}
}

// Resolve turns any input URL into a stream descriptor or a typed failure.
// Raw transport errors never escape this boundary.
func (p *Pipeline) Resolve(ctx context.Context, input string) (*types.StreamDescriptor, error) {
	kind := classify.Classify(input)
	p.log.Debug("classified input", "input", input, "kind", kind.String())

	if kind == classify.DirectStream {
		if classify.IsPlatformURL(input) {
			return p.platform.Resolve(ctx, input)
		}
		return wrapDirect(input), nil
	}

	match, err := p.scraper.ResolveStream(ctx, input, scraper.FetchOptions{})
	if err != nil {
		if errors.Is(err, scraper.ErrNoStream) {
			return nil, types.NewResolutionError(types.ReasonNoStreamFound, input, err)
		}
		return nil, types.NewResolutionError(types.ReasonFetchFailed, input, err)
	}

	// One level of platform redelegation only; a scraped platform URL is
	// resolved, never scraped again.
	if match.Kind == scraper.KindPlatform {
		return p.platform.Resolve(ctx, match.URL)
	}

	desc := wrapDirect(match.URL)
	desc.Provenance = types.Provenance{Strategy: types.StrategyScrape, Validated: true}
	return desc, nil
}

// wrapDirect builds a descriptor around a URL taken verbatim, with the
// container hint inferred from its shape.
func wrapDirect(url string) *types.StreamDescriptor {
	d := types.StreamDescriptor{
		URL:             url,
		ContainerHint:   types.ContainerHint(classify.ContainerHintName(url)),
		RequiredHeaders: map[string]string{},
		Provenance:      types.Provenance{Strategy: types.StrategyDirect, Validated: false},
	}
	d = d.WithTitle("Stream")
	return &d
}
