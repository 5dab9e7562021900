// Package relay serves a local HTTP playlist/segment pair so playback
// clients that cannot attach custom headers still reach header-protected
// upstreams.
package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stream-resolver-go/pkg/httpclient"
	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/platform"
)

const relayUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Hop-by-hop headers never forwarded from the upstream response.
var hopByHopHeaders = []string{
	"Transfer-Encoding",
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Upgrade",
}

// Handler implements the /playlist and /segment routes. Requests are
// stateless; everything is carried in the query string.
type Handler struct {
	client         *httpclient.Client
	log            *logging.Logger
	segmentTimeout time.Duration
}

// New creates a relay handler.
func New(client *httpclient.Client, log *logging.Logger, segmentTimeout time.Duration) *Handler {
	return &Handler{
		client:         client,
		log:            log.WithComponent("relay"),
		segmentTimeout: segmentTimeout,
	}
}

// Register mounts the relay routes on a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/playlist", h.HandlePlaylist)
	mux.HandleFunc("/segment", h.HandleSegment)
}

// HandlePlaylist synthesizes a minimal single-segment HLS manifest pointing
// back at the segment route.
func (h *Handler) HandlePlaylist(w http.ResponseWriter, r *http.Request) {
	upstream := r.URL.Query().Get("url")
	if upstream == "" {
		http.NotFound(w, r)
		return
	}

	segmentPath := "/segment?url=" + url.QueryEscape(upstream)
	// Forward any header overrides into the segment URL
	for key, values := range r.URL.Query() {
		if strings.HasPrefix(key, "h_") && len(values) > 0 {
			segmentPath += "&" + key + "=" + url.QueryEscape(values[0])
		}
	}

	manifest := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-VERSION:3",
		"#EXT-X-TARGETDURATION:0",
		"#EXTINF:-1,",
		segmentPath,
		"#EXT-X-ENDLIST",
		"",
	}, "\n")

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	io.WriteString(w, manifest)
	h.log.Debug("served synthesized manifest", "upstream", upstream)
}

// HandleSegment fetches the upstream URL with the derived header bundle and
// streams the body through, mirroring the upstream status.
func (h *Handler) HandleSegment(w http.ResponseWriter, r *http.Request) {
	upstream := r.URL.Query().Get("url")
	if upstream == "" {
		http.NotFound(w, r)
		return
	}

	headers := DeriveHeaders(upstream)
	for key, value := range httpclient.ParseHeaderParams(r.URL.Query()) {
		headers[key] = value
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.segmentTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, upstream, nil)
	if err != nil {
		http.Error(w, fmt.Sprintf("bad upstream url: %v", err), http.StatusInternalServerError)
		return
	}
	// Forward the client's own headers (Range for seeking, Accept-*)
	// minus proxy-revealing ones; the derived bundle wins on conflict.
	for key, values := range httpclient.FilteredHeaders(r.Header) {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warn("upstream fetch failed", "url", upstream, "error", err)
		http.Error(w, fmt.Sprintf("upstream fetch failed: %v", err), http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	// A refusing upstream is a relay failure, not a response to mirror;
	// only success statuses (200, 206) pass through.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.log.Warn("upstream returned error status", "url", upstream, "status", resp.StatusCode)
		http.Error(w, fmt.Sprintf("upstream returned %s", resp.Status), http.StatusInternalServerError)
		return
	}

	copyUpstreamHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		// Client disconnects mid-stream are routine; the context abort
		// also abandons the upstream body.
		h.log.Debug("relay copy ended early", "url", upstream, "written", written, "error", err)
		return
	}
	h.log.Debug("relayed segment", "url", upstream, "status", resp.StatusCode, "bytes", written)
}

func copyUpstreamHeaders(dst, src http.Header) {
	blocked := make(map[string]bool, len(hopByHopHeaders))
	for _, name := range hopByHopHeaders {
		blocked[http.CanonicalHeaderKey(name)] = true
	}
	for key, values := range src {
		if blocked[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// DeriveHeaders builds the header bundle an upstream origin expects, by
// pattern-matching its URL. Platform CDN hosts get a Referer built from the
// embedded video id when one is present.
func DeriveHeaders(upstream string) map[string]string {
	headers := map[string]string{
		"User-Agent": relayUserAgent,
	}

	lower := strings.ToLower(upstream)
	if strings.Contains(lower, "googlevideo.com") || strings.Contains(lower, "youtube.com") {
		headers["Origin"] = "https://www.youtube.com"
		if id, ok := platform.ExtractVideoID(upstream); ok {
			headers["Referer"] = platform.WatchURL(id)
		} else {
			headers["Referer"] = "https://www.youtube.com/"
		}
	}

	return headers
}
