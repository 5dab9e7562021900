package platform

import (
	"context"
	"errors"
	"fmt"

	"stream-resolver-go/pkg/config"
	"stream-resolver-go/pkg/extractor"
	"stream-resolver-go/pkg/httpclient"
	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/types"
	"stream-resolver-go/pkg/urlutil"
)

const archiveMirrorPrefix = "https://web.archive.org/web/2/"

const embedUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ArchiveStreamer shells an input URL through the external media pipeline
// and returns a locally playable manifest path.
type ArchiveStreamer interface {
	Stream(ctx context.Context, inputURL string, headers map[string]string) (string, error)
}

// strategy is one resolution attempt. Strategies run strictly sequentially;
// a failure is logged and the next one runs.
type strategy struct {
	name string
	run  func(ctx context.Context, videoID string) (*types.StreamDescriptor, error)
}

// Resolver turns platform URLs into stream descriptors.
type Resolver struct {
	api        *apiClient
	ex         extractor.Extractor
	archive    ArchiveStreamer
	cfg        *config.Config
	log        *logging.Logger
	strategies []strategy
}

// New creates a Resolver with the default strategy chain: private player
// API, external extractor (with VOD and archive-mirror recovery), then the
// blind embed fallback.
func New(client *httpclient.Client, ex extractor.Extractor, archive ArchiveStreamer, cfg *config.Config, log *logging.Logger) *Resolver {
	r := &Resolver{
		api:     newAPIClient(client, log, cfg.APITimeout),
		ex:      ex,
		archive: archive,
		cfg:     cfg,
		log:     log.WithComponent("platform"),
	}
	r.strategies = []strategy{
		{name: "player-api", run: r.resolveViaAPI},
		{name: "external-extractor", run: r.resolveViaExtractor},
		{name: "direct-embed", run: r.resolveViaEmbed},
	}
	return r
}

// Resolve runs the strategy chain against a platform URL, stopping at the
// first success. Only total exhaustion is surfaced as a hard failure.
func (r *Resolver) Resolve(ctx context.Context, platformURL string) (*types.StreamDescriptor, error) {
	videoID, ok := ExtractVideoID(platformURL)
	if !ok {
		return nil, types.NewResolutionError(types.ReasonInvalidIdentifier, platformURL, nil)
	}

	var lastErr error
	for _, s := range r.strategies {
		desc, err := s.run(ctx, videoID)
		if err != nil {
			r.log.Warn("strategy failed", "strategy", s.name, "video_id", videoID, "error", err)
			lastErr = err
			continue
		}
		r.log.Info("resolved platform stream", "strategy", s.name, "video_id", videoID, "hint", desc.ContainerHint)
		result := desc.WithTitle("Video " + videoID)
		return &result, nil
	}

	return nil, types.NewResolutionError(types.ReasonAllMethodsExhausted, platformURL, lastErr)
}

func (r *Resolver) resolveViaAPI(ctx context.Context, videoID string) (*types.StreamDescriptor, error) {
	formats, title, err := r.api.fetchPlayerMetadata(ctx, videoID)
	if err != nil {
		return nil, err
	}

	best, ok := SelectBestFormat(formats, r.cfg.MaxHeight)
	if !ok {
		return nil, fmt.Errorf("no usable format for %s", videoID)
	}

	return &types.StreamDescriptor{
		URL:           best.URL,
		ContainerHint: hintForFormat(best),
		RequiredHeaders: map[string]string{
			"User-Agent": embedUserAgent,
		},
		Title:      title,
		Provenance: types.Provenance{Strategy: types.StrategyPlatformAPI, Validated: true},
	}, nil
}

func (r *Resolver) resolveViaExtractor(ctx context.Context, videoID string) (*types.StreamDescriptor, error) {
	watchURL := WatchURL(videoID)

	result, err := r.ex.Extract(ctx, watchURL, r.extractorConfig())
	if errors.Is(err, extractor.ErrRecordingUnavailable) {
		return r.recoverUnavailableRecording(ctx, videoID)
	}
	if errors.Is(err, extractor.ErrGeoRestricted) {
		return nil, types.NewResolutionError(types.ReasonGeoRestricted, watchURL, err)
	}
	if err != nil {
		return nil, err
	}

	return r.descriptorFromFormats(result, watchURL)
}

// recoverUnavailableRecording retries the extraction as a VOD and falls back
// to a historical archive mirror shelled through the media pipeline.
func (r *Resolver) recoverUnavailableRecording(ctx context.Context, videoID string) (*types.StreamDescriptor, error) {
	watchURL := WatchURL(videoID)
	r.log.Info("recording unavailable, trying VOD variant", "video_id", videoID)

	vodCfg := r.extractorConfig()
	vodCfg.Clients = []string{"web"}
	vodCfg.DisabledClients = nil

	result, err := r.ex.Extract(ctx, watchURL, vodCfg)
	if err == nil {
		return r.descriptorFromFormats(result, watchURL)
	}

	if r.archive == nil {
		return nil, fmt.Errorf("VOD variant failed and no archive pipeline configured: %w", err)
	}

	r.log.Info("VOD variant failed, trying archive mirror", "video_id", videoID)
	localManifest, err := r.archive.Stream(ctx, archiveMirrorPrefix+watchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("archive mirror: %w", err)
	}

	return &types.StreamDescriptor{
		URL:             localManifest,
		ContainerHint:   types.ContainerHLS,
		RequiredHeaders: map[string]string{},
		Provenance:      types.Provenance{Strategy: types.StrategyArchive, Validated: true},
	}, nil
}

func (r *Resolver) descriptorFromFormats(result *extractor.Result, watchURL string) (*types.StreamDescriptor, error) {
	best, ok := SelectBestFormat(result.Formats, r.cfg.MaxHeight)
	if !ok {
		return nil, fmt.Errorf("extractor returned no formats for %s", watchURL)
	}

	return &types.StreamDescriptor{
		URL:             best.URL,
		ContainerHint:   hintForFormat(best),
		RequiredHeaders: map[string]string{},
		Title:           result.Title,
		Provenance:      types.Provenance{Strategy: types.StrategyExtractor, Validated: true},
	}, nil
}

// resolveViaEmbed constructs an embed URL and header bundle without any
// network validation. Provenance marks it unvalidated so callers can decide
// how much to trust it.
func (r *Resolver) resolveViaEmbed(_ context.Context, videoID string) (*types.StreamDescriptor, error) {
	embedURL := EmbedURL(videoID)
	return &types.StreamDescriptor{
		URL:           embedURL,
		ContainerHint: types.ContainerPlatformEmbed,
		RequiredHeaders: map[string]string{
			"User-Agent": embedUserAgent,
			"Referer":    embedURL,
			"Origin":     urlutil.SchemeHost(embedURL),
		},
		Provenance: types.Provenance{Strategy: types.StrategyEmbed, Validated: false},
	}, nil
}

func (r *Resolver) extractorConfig() extractor.Config {
	formatExpr := "best"
	if r.cfg.MaxHeight > 0 {
		formatExpr = fmt.Sprintf("best[height<=%d]/best", r.cfg.MaxHeight)
	}
	return extractor.Config{
		FormatExpr:          formatExpr,
		DisabledClients:     r.cfg.DisabledClients,
		Quiet:               true,
		SkipDownload:        true,
		NoCheckCertificates: true,
		NoCacheDir:          true,
		ForceIPv4:           true,
		GeoBypassCountry:    r.cfg.GeoBypassCountry,
		CookieFile:          r.cfg.CookieFile,
		Retries:             3,
	}
}
