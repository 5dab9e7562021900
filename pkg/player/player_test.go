package player

import (
	"testing"

	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/types"
)

func TestFormatStreamURL(t *testing.T) {
	tests := []struct {
		name     string
		desc     *types.StreamDescriptor
		expected string
	}{
		{
			name: "headers sorted and pipe separated",
			desc: &types.StreamDescriptor{
				URL: "https://cdn.example.com/live.m3u8",
				RequiredHeaders: map[string]string{
					"User-Agent": "UA/1.0",
					"Referer":    "https://example.com/",
					"Origin":     "https://example.com",
				},
			},
			expected: "https://cdn.example.com/live.m3u8|Origin=https://example.com&Referer=https://example.com/&User-Agent=UA/1.0",
		},
		{
			name:     "no headers is just the url",
			desc:     &types.StreamDescriptor{URL: "https://cdn.example.com/x.mp4"},
			expected: "https://cdn.example.com/x.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatStreamURL(tt.desc); got != tt.expected {
				t.Errorf("FormatStreamURL = %q, want %q", got, tt.expected)
			}
		})
	}
}

// Formatting must be deterministic across calls despite map iteration order.
func TestFormatStreamURLDeterministic(t *testing.T) {
	desc := &types.StreamDescriptor{
		URL: "https://cdn/x.m3u8",
		RequiredHeaders: map[string]string{
			"A": "1", "B": "2", "C": "3", "D": "4", "E": "5",
		},
	}
	first := FormatStreamURL(desc)
	for i := 0; i < 20; i++ {
		if got := FormatStreamURL(desc); got != first {
			t.Fatalf("non-deterministic output: %q then %q", first, got)
		}
	}
}

func TestHeaderFields(t *testing.T) {
	got := headerFields(map[string]string{
		"Referer":    "https://example.com/",
		"User-Agent": "UA/1.0",
	})
	want := "Referer: https://example.com/,User-Agent: UA/1.0"
	if got != want {
		t.Errorf("headerFields = %q, want %q", got, want)
	}
}

func TestNewSelectsImplementation(t *testing.T) {
	log := logging.Discard()

	if _, ok := New("mpv", log).(*MPV); !ok {
		t.Error("mpv name must select MPV")
	}
	if _, ok := New("", log).(*MPV); !ok {
		t.Error("empty name must default to MPV")
	}
	if _, ok := New("vlc", log).(*VLC); !ok {
		t.Error("vlc name must select VLC")
	}
	if _, ok := New("ffplay", log).(*Generic); !ok {
		t.Error("unknown name must select Generic")
	}
}
