// Package types defines core domain types used throughout the application.
package types

import (
	"fmt"
	"strings"
)

// ContainerHint tells the playback layer which transport a stream URL uses.
type ContainerHint string

const (
	ContainerHLS             ContainerHint = "hls"
	ContainerDASH            ContainerHint = "dash"
	ContainerProgressiveHTTP ContainerHint = "progressive"
	ContainerRTMP            ContainerHint = "rtmp"
	ContainerPlatformEmbed   ContainerHint = "embed"
)

// Strategy identifies which resolution path produced a descriptor.
type Strategy string

const (
	StrategyDirect      Strategy = "direct"
	StrategyScrape      Strategy = "scrape"
	StrategyPlatformAPI Strategy = "platform-api"
	StrategyExtractor   Strategy = "extractor"
	StrategyArchive     Strategy = "archive"
	StrategyEmbed       Strategy = "embed"
)

// Provenance records which strategy produced a descriptor and whether the
// stream URL was observed over the network or constructed blind.
type Provenance struct {
	Strategy  Strategy
	Validated bool
}

// StreamDescriptor is the pipeline's universal output: a resolved stream
// endpoint plus everything a playback client needs to open it. It is created
// fresh per resolution request and immutable once returned.
type StreamDescriptor struct {
	URL             string
	ContainerHint   ContainerHint
	RequiredHeaders map[string]string
	Title           string
	Provenance      Provenance
}

// WithTitle returns a copy with the title replaced by a synthesized
// placeholder when the resolution produced none.
func (d StreamDescriptor) WithTitle(fallback string) StreamDescriptor {
	if d.Title == "" {
		d.Title = fallback
	}
	return d
}

// Format is one candidate format reported by the external extractor.
type Format struct {
	URL         string `json:"url"`
	ManifestURL string `json:"manifest_url,omitempty"`
	ACodec      string `json:"acodec,omitempty"`
	VCodec      string `json:"vcodec,omitempty"`
	Ext         string `json:"ext,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// HasAudio reports whether the format carries an audio track.
func (f Format) HasAudio() bool { return f.ACodec != "" && f.ACodec != "none" }

// HasVideo reports whether the format carries a video track.
func (f Format) HasVideo() bool { return f.VCodec != "" && f.VCodec != "none" }

// IsManifest reports whether the format points at an adaptive manifest
// rather than a progressive download.
func (f Format) IsManifest() bool {
	return f.ManifestURL != "" ||
		strings.Contains(f.URL, ".m3u8") ||
		f.Ext == "m3u8" || f.Ext == "mpd"
}

func (f Format) String() string {
	return fmt.Sprintf("format{h=%d a=%s v=%s ext=%s}", f.Height, f.ACodec, f.VCodec, f.Ext)
}
