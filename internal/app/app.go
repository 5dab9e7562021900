// Package app provides the main application setup and dependency injection.
package app

import (
	"context"

	"stream-resolver-go/pkg/config"
	"stream-resolver-go/pkg/extractor"
	"stream-resolver-go/pkg/httpclient"
	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/pipeline"
	"stream-resolver-go/pkg/platform"
	"stream-resolver-go/pkg/relay"
	"stream-resolver-go/pkg/scraper"
	"stream-resolver-go/pkg/server"
	"stream-resolver-go/pkg/shellpipe"
	"stream-resolver-go/pkg/types"
)

// App is the main application container.
type App struct {
	Config     *config.Config
	Log        *logging.Logger
	HTTPClient *httpclient.Client
	Scraper    *scraper.Scraper
	Pipeline   *pipeline.Pipeline
	Server     *server.Server

	streamer *shellpipe.Streamer
}

// New creates and initializes the application.
func New() (*App, error) {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogJSON, nil)
	log.Info("initializing stream resolver", "port", cfg.Port, "log_level", cfg.LogLevel)

	httpClient := httpclient.New(cfg, log)

	pageScraper := scraper.New(httpClient, log, cfg.PageCacheTTL, cfg.FetchTimeout)

	ytdlp := extractor.NewYtdlp(cfg.YtdlpPath, cfg.ExtractorTimeout, log)

	streamer, err := shellpipe.New("", "", log)
	if err != nil {
		// Archive-mirror recovery degrades gracefully without it
		log.Warn("failed to initialize media pipeline", "error", err)
		streamer = nil
	}

	var archive platform.ArchiveStreamer
	if streamer != nil {
		archive = streamer
	}
	platformResolver := platform.New(httpClient, ytdlp, archive, cfg, log)

	resolvePipeline := pipeline.New(platformResolver, pageScraper, log)

	srv := server.New(cfg, log)
	relayHandler := relay.New(httpClient, log, cfg.SegmentTimeout)
	relayHandler.Register(srv.Router())

	return &App{
		Config:     cfg,
		Log:        log,
		HTTPClient: httpClient,
		Scraper:    pageScraper,
		Pipeline:   resolvePipeline,
		Server:     srv,
		streamer:   streamer,
	}, nil
}

// Resolve runs the resolution pipeline against one input URL.
func (a *App) Resolve(ctx context.Context, input string) (*types.StreamDescriptor, error) {
	return a.Pipeline.Resolve(ctx, input)
}

// Run starts the relay server and blocks until shutdown.
func (a *App) Run() error {
	a.Log.Info("starting relay server", "port", a.Config.Port)
	return a.Server.Start()
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() {
	a.Log.Info("shutting down application")

	a.Scraper.Close()
	if a.streamer != nil {
		a.streamer.Close()
	}
}
