// Package player hands resolved streams to an external playback engine.
package player

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/types"
)

// FormatStreamURL renders a descriptor in the playback engine's expected
// convention: the URL, a pipe separator, then `Key=value` pairs joined with
// `&`. Keys are sorted so the output is deterministic. A descriptor without
// headers is just its URL.
func FormatStreamURL(desc *types.StreamDescriptor) string {
	if len(desc.RequiredHeaders) == 0 {
		return desc.URL
	}

	keys := make([]string, 0, len(desc.RequiredHeaders))
	for key := range desc.RequiredHeaders {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+desc.RequiredHeaders[key])
	}
	return desc.URL + "|" + strings.Join(pairs, "&")
}

// Player launches playback of a resolved stream.
type Player interface {
	Play(ctx context.Context, desc *types.StreamDescriptor) error
}

// New returns the player for a configured name. Unknown names get the
// generic launcher invoking the binary with the formatted URL.
func New(name string, log *logging.Logger) Player {
	switch strings.ToLower(name) {
	case "mpv", "":
		return &MPV{log: log.WithComponent("player")}
	case "vlc":
		return &VLC{log: log.WithComponent("player")}
	default:
		return &Generic{binary: name, log: log.WithComponent("player")}
	}
}

// MPV launches mpv, passing headers via --http-header-fields.
type MPV struct {
	log *logging.Logger
}

func (p *MPV) Play(ctx context.Context, desc *types.StreamDescriptor) error {
	args := []string{"--force-window=immediate"}
	if desc.Title != "" {
		args = append(args, "--title="+desc.Title)
	}
	if len(desc.RequiredHeaders) > 0 {
		args = append(args, "--http-header-fields="+headerFields(desc.RequiredHeaders))
	}
	args = append(args, desc.URL)

	p.log.Info("launching mpv", "url", desc.URL, "hint", desc.ContainerHint)
	return runPlayer(ctx, "mpv", args)
}

// VLC launches vlc with per-option header flags.
type VLC struct {
	log *logging.Logger
}

func (p *VLC) Play(ctx context.Context, desc *types.StreamDescriptor) error {
	args := []string{"--play-and-exit"}
	if ref := desc.RequiredHeaders["Referer"]; ref != "" {
		args = append(args, ":http-referrer="+ref)
	}
	if ua := desc.RequiredHeaders["User-Agent"]; ua != "" {
		args = append(args, ":http-user-agent="+ua)
	}
	args = append(args, desc.URL)

	p.log.Info("launching vlc", "url", desc.URL, "hint", desc.ContainerHint)
	return runPlayer(ctx, "vlc", args)
}

// Generic launches an arbitrary binary with the formatted URL as its only
// argument.
type Generic struct {
	binary string
	log    *logging.Logger
}

func (p *Generic) Play(ctx context.Context, desc *types.StreamDescriptor) error {
	p.log.Info("launching player", "binary", p.binary, "url", desc.URL)
	return runPlayer(ctx, p.binary, []string{FormatStreamURL(desc)})
}

func runPlayer(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", binary, err)
	}
	return nil
}

// headerFields renders headers for mpv's comma-separated list flag, keys
// sorted for determinism.
func headerFields(headers map[string]string) string {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, key+": "+headers[key])
	}
	return strings.Join(fields, ",")
}
