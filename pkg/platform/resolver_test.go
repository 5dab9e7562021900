package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stream-resolver-go/pkg/config"
	"stream-resolver-go/pkg/extractor"
	"stream-resolver-go/pkg/httpclient"
	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/types"
)

type stubExtractor struct {
	result *extractor.Result
	err    error
	calls  []extractor.Config
}

func (s *stubExtractor) Extract(_ context.Context, _ string, cfg extractor.Config) (*extractor.Result, error) {
	s.calls = append(s.calls, cfg)
	if s.err != nil {
		// Only the first call fails; recovery attempts succeed when a
		// result is configured.
		err := s.err
		s.err = nil
		return nil, err
	}
	if s.result == nil {
		return nil, errors.New("no result configured")
	}
	return s.result, nil
}

func testConfig() *config.Config {
	return &config.Config{MaxHeight: 1080, APITimeout: 5 * time.Second}
}

func newTestResolver(ex extractor.Extractor) *Resolver {
	client := httpclient.New(&config.Config{}, logging.Discard())
	return New(client, ex, nil, testConfig(), logging.Discard())
}

func TestResolveInvalidIdentifier(t *testing.T) {
	r := newTestResolver(&stubExtractor{})
	_, err := r.Resolve(context.Background(), "https://example.com/not-a-video")
	if types.ReasonOf(err) != types.ReasonInvalidIdentifier {
		t.Fatalf("expected invalid identifier, got %v", err)
	}
}

// Strategies run strictly in order and stop at the first success; later
// strategies are never invoked.
func TestResolveStrategyOrdering(t *testing.T) {
	r := newTestResolver(&stubExtractor{})

	var order []string
	r.strategies = []strategy{
		{name: "A", run: func(context.Context, string) (*types.StreamDescriptor, error) {
			order = append(order, "A")
			return nil, errors.New("A always fails")
		}},
		{name: "B", run: func(context.Context, string) (*types.StreamDescriptor, error) {
			order = append(order, "B")
			return &types.StreamDescriptor{URL: "https://cdn/b.m3u8", ContainerHint: types.ContainerHLS}, nil
		}},
		{name: "C", run: func(context.Context, string) (*types.StreamDescriptor, error) {
			order = append(order, "C")
			return &types.StreamDescriptor{URL: "https://cdn/c.m3u8"}, nil
		}},
	}

	desc, err := r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatal(err)
	}
	if desc.URL != "https://cdn/b.m3u8" {
		t.Errorf("got %q, want B's result", desc.URL)
	}
	if len(order) != 2 || order[0] != "A" || order[1] != "B" {
		t.Errorf("strategy order = %v, want [A B]", order)
	}
}

func TestResolveAllStrategiesExhausted(t *testing.T) {
	r := newTestResolver(&stubExtractor{})
	r.strategies = []strategy{
		{name: "A", run: func(context.Context, string) (*types.StreamDescriptor, error) {
			return nil, errors.New("fail")
		}},
	}

	_, err := r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if types.ReasonOf(err) != types.ReasonAllMethodsExhausted {
		t.Fatalf("expected exhaustion, got %v", err)
	}
}

func TestResolveViaExtractor(t *testing.T) {
	ex := &stubExtractor{
		result: &extractor.Result{
			Title: "Test Video",
			Formats: []types.Format{
				{URL: "https://cdn/x.mp4", ACodec: "aac", VCodec: "h264", Height: 720},
			},
		},
	}
	r := newTestResolver(ex)

	desc, err := r.resolveViaExtractor(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatal(err)
	}
	if desc.URL != "https://cdn/x.mp4" {
		t.Errorf("URL = %q", desc.URL)
	}
	if desc.ContainerHint != types.ContainerProgressiveHTTP {
		t.Errorf("hint = %v, want progressive", desc.ContainerHint)
	}
	if desc.Provenance.Strategy != types.StrategyExtractor || !desc.Provenance.Validated {
		t.Errorf("provenance = %+v", desc.Provenance)
	}
}

func TestResolveGeoRestricted(t *testing.T) {
	ex := &stubExtractor{err: extractor.ErrGeoRestricted}
	r := newTestResolver(ex)

	_, err := r.resolveViaExtractor(context.Background(), "dQw4w9WgXcQ")
	if types.ReasonOf(err) != types.ReasonGeoRestricted {
		t.Fatalf("expected geo restriction, got %v", err)
	}
}

// A recording-unavailable failure triggers the VOD re-extraction variant.
func TestRecoverUnavailableRecording(t *testing.T) {
	ex := &stubExtractor{
		err: extractor.ErrRecordingUnavailable,
		result: &extractor.Result{
			Formats: []types.Format{{URL: "https://cdn/vod.mp4", ACodec: "aac", VCodec: "h264", Height: 480}},
		},
	}
	r := newTestResolver(ex)

	desc, err := r.resolveViaExtractor(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatal(err)
	}
	if desc.URL != "https://cdn/vod.mp4" {
		t.Errorf("URL = %q, want VOD variant result", desc.URL)
	}
	if len(ex.calls) != 2 {
		t.Fatalf("extractor called %d times, want 2", len(ex.calls))
	}
	if len(ex.calls[1].Clients) == 0 || ex.calls[1].Clients[0] != "web" {
		t.Errorf("VOD variant config = %+v, want web client", ex.calls[1])
	}
}

// The resolution ceiling and the disabled-client list ride into every
// extractor invocation, not just the post-hoc format pick.
func TestExtractorConfigCarriesLimits(t *testing.T) {
	ex := &stubExtractor{
		result: &extractor.Result{
			Formats: []types.Format{{URL: "https://cdn/x.mp4", ACodec: "aac", VCodec: "h264", Height: 720}},
		},
	}
	client := httpclient.New(&config.Config{}, logging.Discard())
	r := New(client, ex, nil, &config.Config{MaxHeight: 720, DisabledClients: []string{"web"}}, logging.Discard())

	if _, err := r.resolveViaExtractor(context.Background(), "dQw4w9WgXcQ"); err != nil {
		t.Fatal(err)
	}
	if len(ex.calls) != 1 {
		t.Fatalf("extractor called %d times, want 1", len(ex.calls))
	}
	if got := ex.calls[0].FormatExpr; got != "best[height<=720]/best" {
		t.Errorf("FormatExpr = %q, want the height ceiling applied", got)
	}
	if len(ex.calls[0].DisabledClients) != 1 || ex.calls[0].DisabledClients[0] != "web" {
		t.Errorf("DisabledClients = %v, want [web]", ex.calls[0].DisabledClients)
	}
}

// A zero ceiling means no height constraint at all.
func TestExtractorConfigNoCeiling(t *testing.T) {
	client := httpclient.New(&config.Config{}, logging.Discard())
	r := New(client, &stubExtractor{}, nil, &config.Config{}, logging.Discard())

	if got := r.extractorConfig().FormatExpr; got != "best" {
		t.Errorf("FormatExpr = %q, want plain best", got)
	}
}

func TestResolveViaEmbed(t *testing.T) {
	r := newTestResolver(&stubExtractor{})

	desc, err := r.resolveViaEmbed(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatal(err)
	}
	if desc.URL != "https://www.youtube.com/embed/dQw4w9WgXcQ" {
		t.Errorf("URL = %q", desc.URL)
	}
	if desc.ContainerHint != types.ContainerPlatformEmbed {
		t.Errorf("hint = %v", desc.ContainerHint)
	}
	if desc.RequiredHeaders["Referer"] != desc.URL {
		t.Errorf("Referer = %q, want the embed URL itself", desc.RequiredHeaders["Referer"])
	}
	if desc.RequiredHeaders["Origin"] != "https://www.youtube.com" {
		t.Errorf("Origin = %q", desc.RequiredHeaders["Origin"])
	}
	if desc.Provenance.Validated {
		t.Error("blind embed must be marked unvalidated")
	}
}

// The metadata endpoint is tried with each client profile until one yields
// a playable response.
func TestFetchPlayerMetadataProfileLoop(t *testing.T) {
	var profilesSeen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body playerRequest
		json.NewDecoder(req.Body).Decode(&body)
		profilesSeen = append(profilesSeen, body.Context.Client.ClientName)

		// First profile gets an unplayable response, second succeeds
		if len(profilesSeen) == 1 {
			json.NewEncoder(w).Encode(map[string]any{
				"playabilityStatus": map[string]string{"status": "LOGIN_REQUIRED", "reason": "sign in"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"playabilityStatus": map[string]string{"status": "OK"},
			"videoDetails":      map[string]string{"title": "Profile Test"},
			"streamingData": map[string]any{
				"formats": []map[string]any{
					{"url": "https://cdn/direct.mp4", "mimeType": `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, "height": 720},
				},
			},
		})
	}))
	defer srv.Close()

	client := httpclient.New(&config.Config{}, logging.Discard())
	r := New(client, &stubExtractor{}, nil, testConfig(), logging.Discard())
	r.api.base = srv.URL

	formats, title, err := r.api.fetchPlayerMetadata(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatal(err)
	}
	if title != "Profile Test" {
		t.Errorf("title = %q", title)
	}
	if len(formats) != 1 || formats[0].URL != "https://cdn/direct.mp4" {
		t.Errorf("formats = %v", formats)
	}
	if len(profilesSeen) != 2 || profilesSeen[0] != "ANDROID" || profilesSeen[1] != "IOS" {
		t.Errorf("profiles tried = %v, want [ANDROID IOS]", profilesSeen)
	}
}

func TestCodecsFromMime(t *testing.T) {
	tests := []struct {
		mime  string
		wantA string
		wantV string
	}{
		{`video/mp4; codecs="avc1.64001F, mp4a.40.2"`, "mp4a.40.2", "avc1.64001F"},
		{`video/webm; codecs="vp9"`, "none", "vp9"},
		{`audio/webm; codecs="opus"`, "opus", "none"},
		{`video/mp4`, "none", "none"},
	}
	for _, tt := range tests {
		a, v := codecsFromMime(tt.mime)
		if a != tt.wantA || v != tt.wantV {
			t.Errorf("codecsFromMime(%q) = (%q, %q), want (%q, %q)", tt.mime, a, v, tt.wantA, tt.wantV)
		}
	}
}

func TestConvertAPIFormatCipher(t *testing.T) {
	f, ok := convertAPIFormat(apiFormat{
		SignatureCipher: "s=ABC&sp=sig&url=https%3A%2F%2Fcdn%2Fciphered.mp4",
		MimeType:        `video/mp4; codecs="avc1.64001F, mp4a.40.2"`,
		Height:          360,
	})
	if !ok {
		t.Fatal("expected cipher format to convert")
	}
	// Unsigned URL is returned as-is; signature decryption is not implemented
	if f.URL != "https://cdn/ciphered.mp4" {
		t.Errorf("URL = %q", f.URL)
	}
}
