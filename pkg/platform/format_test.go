package platform

import (
	"testing"

	"stream-resolver-go/pkg/types"
)

func TestSelectBestFormat(t *testing.T) {
	tests := []struct {
		name      string
		formats   []types.Format
		maxHeight int
		expectURL string
		ok        bool
	}{
		{
			name: "complete tracks beat higher resolution partial",
			formats: []types.Format{
				{URL: "a", Height: 480, ACodec: "none", VCodec: "h264"},
				{URL: "b", Height: 720, ACodec: "aac", VCodec: "h264"},
				{URL: "c", Height: 360, ACodec: "aac", VCodec: "h264"},
			},
			expectURL: "b",
			ok:        true,
		},
		{
			name: "manifest beats any progressive",
			formats: []types.Format{
				{URL: "prog", Height: 1080, ACodec: "aac", VCodec: "h264"},
				{URL: "manifest", ManifestURL: "manifest", Ext: "m3u8"},
			},
			expectURL: "manifest",
			ok:        true,
		},
		{
			name: "all partial falls back to highest",
			formats: []types.Format{
				{URL: "low", Height: 360, ACodec: "none", VCodec: "h264"},
				{URL: "high", Height: 1080, ACodec: "none", VCodec: "h264"},
			},
			expectURL: "high",
			ok:        true,
		},
		{
			name: "height ceiling respected",
			formats: []types.Format{
				{URL: "fourk", Height: 2160, ACodec: "aac", VCodec: "h264"},
				{URL: "hd", Height: 720, ACodec: "aac", VCodec: "h264"},
			},
			maxHeight: 1080,
			expectURL: "hd",
			ok:        true,
		},
		{
			name: "ceiling never disqualifies everything",
			formats: []types.Format{
				{URL: "fourk", Height: 2160, ACodec: "aac", VCodec: "h264"},
			},
			maxHeight: 1080,
			expectURL: "fourk",
			ok:        true,
		},
		{
			name:    "empty input",
			formats: nil,
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, ok := SelectBestFormat(tt.formats, tt.maxHeight)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && best.URL != tt.expectURL {
				t.Errorf("selected %q, want %q", best.URL, tt.expectURL)
			}
		})
	}
}

func TestHintForFormat(t *testing.T) {
	tests := []struct {
		format   types.Format
		expected types.ContainerHint
	}{
		{types.Format{URL: "https://cdn/x.m3u8", ManifestURL: "https://cdn/x.m3u8", Ext: "m3u8"}, types.ContainerHLS},
		{types.Format{URL: "https://cdn/x.mpd", ManifestURL: "https://cdn/x.mpd", Ext: "mpd"}, types.ContainerDASH},
		{types.Format{URL: "https://cdn/x.mp4", ACodec: "aac", VCodec: "h264"}, types.ContainerProgressiveHTTP},
	}
	for _, tt := range tests {
		if got := hintForFormat(tt.format); got != tt.expected {
			t.Errorf("hintForFormat(%v) = %v, want %v", tt.format, got, tt.expected)
		}
	}
}
