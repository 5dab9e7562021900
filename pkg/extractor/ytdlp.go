package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/types"
)

const defaultTimeout = 15 * time.Second

// stderr markers the tool emits for failures that have a dedicated recovery
// path upstream.
var (
	unavailableMarkers = []string{
		"recording is not available",
		"this live event has ended",
	}
	geoMarkers = []string{
		"not made this video available in your country",
		"geo restricted",
		"video unavailable",
		"content isn't available",
	}
)

// YtdlpExtractor shells out to yt-dlp and parses its single-JSON dump.
type YtdlpExtractor struct {
	path    string
	timeout time.Duration
	log     *logging.Logger
}

// NewYtdlp creates an extractor invoking the binary at path ("yt-dlp" to use
// PATH lookup). A zero timeout gets the default.
func NewYtdlp(path string, timeout time.Duration, log *logging.Logger) *YtdlpExtractor {
	if path == "" {
		path = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &YtdlpExtractor{
		path:    path,
		timeout: timeout,
		log:     log.WithComponent("extractor"),
	}
}

// dump mirrors the subset of the tool's JSON output we consume.
type dump struct {
	Title     string         `json:"title"`
	Thumbnail string         `json:"thumbnail"`
	Formats   []types.Format `json:"formats"`
	URL       string         `json:"url"`
	Ext       string         `json:"ext"`
}

// Extract runs the tool against url and parses the resulting metadata.
func (y *YtdlpExtractor) Extract(ctx context.Context, url string, cfg Config) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	args := y.buildArgs(url, cfg)
	cmd := exec.CommandContext(ctx, y.path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	y.log.Debug("extractor finished", "url", url, "duration_ms", time.Since(start).Milliseconds(), "error", err != nil)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("extractor timed out after %s", y.timeout)
		}
		return nil, classifyStderr(stderr.String(), err)
	}

	var d dump
	if err := json.Unmarshal(stdout.Bytes(), &d); err != nil {
		return nil, fmt.Errorf("parsing extractor output: %w", err)
	}

	result := &Result{
		Formats:   d.Formats,
		Title:     d.Title,
		Thumbnail: d.Thumbnail,
	}
	// Single-format dumps put the URL at the top level.
	if len(result.Formats) == 0 && d.URL != "" {
		result.Formats = []types.Format{{URL: d.URL, Ext: d.Ext}}
	}
	return result, nil
}

func (y *YtdlpExtractor) buildArgs(url string, cfg Config) []string {
	args := []string{"--dump-single-json"}

	if cfg.Quiet {
		args = append(args, "--quiet", "--no-warnings")
	}
	if cfg.SkipDownload {
		args = append(args, "--skip-download")
	}
	if cfg.NoCheckCertificates {
		args = append(args, "--no-check-certificates")
	}
	if cfg.NoCacheDir {
		args = append(args, "--no-cache-dir")
	}
	if cfg.ForceIPv4 {
		args = append(args, "--force-ipv4")
	}
	if cfg.FormatExpr != "" {
		args = append(args, "-f", cfg.FormatExpr)
	}
	if cfg.GeoBypassCountry != "" {
		args = append(args, "--geo-bypass-country", cfg.GeoBypassCountry)
	}
	if cfg.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(cfg.Retries))
	}

	var clientArgs []string
	for _, c := range cfg.Clients {
		clientArgs = append(clientArgs, c)
	}
	for _, c := range cfg.DisabledClients {
		clientArgs = append(clientArgs, "-"+c)
	}
	if len(clientArgs) > 0 {
		args = append(args, "--extractor-args", "youtube:player_client="+strings.Join(clientArgs, ","))
	}

	if validCookieFile(cfg.CookieFile) {
		args = append(args, "--cookies", cfg.CookieFile)
	} else if cfg.CookieFile != "" {
		y.log.Debug("ignoring invalid cookie file", "path", cfg.CookieFile)
	}

	return append(args, url)
}

// classifyStderr maps known tool failure messages to typed errors.
func classifyStderr(stderr string, runErr error) error {
	lower := strings.ToLower(stderr)
	for _, marker := range unavailableMarkers {
		if strings.Contains(lower, marker) {
			return ErrRecordingUnavailable
		}
	}
	for _, marker := range geoMarkers {
		if strings.Contains(lower, marker) {
			return ErrGeoRestricted
		}
	}
	if line := firstErrorLine(stderr); line != "" {
		return fmt.Errorf("extractor failed: %s", line)
	}
	return fmt.Errorf("extractor failed: %w", runErr)
}

func firstErrorLine(stderr string) string {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR") {
			return line
		}
	}
	return ""
}
