package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stream-resolver-go/pkg/httpclient"
	"stream-resolver-go/pkg/logging"
	"stream-resolver-go/pkg/types"
)

const defaultAPIBase = "https://www.youtube.com"

// apiClient talks to the platform's private player-metadata endpoint with
// client-impersonation profiles.
type apiClient struct {
	http    *httpclient.Client
	log     *logging.Logger
	base    string
	timeout time.Duration
}

func newAPIClient(client *httpclient.Client, log *logging.Logger, timeout time.Duration) *apiClient {
	return &apiClient{
		http:    client,
		log:     log.WithComponent("platform-api"),
		base:    defaultAPIBase,
		timeout: timeout,
	}
}

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			AndroidSDK    int    `json:"androidSdkVersion,omitempty"`
			DeviceModel   string `json:"deviceModel,omitempty"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		Title string `json:"title"`
	} `json:"videoDetails"`
	StreamingData struct {
		HLSManifestURL  string      `json:"hlsManifestUrl"`
		DashManifestURL string      `json:"dashManifestUrl"`
		Formats         []apiFormat `json:"formats"`
		AdaptiveFormats []apiFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

type apiFormat struct {
	URL             string `json:"url"`
	SignatureCipher string `json:"signatureCipher"`
	MimeType        string `json:"mimeType"`
	Height          int    `json:"height"`
}

// fetchPlayerMetadata tries each client profile against the player endpoint
// until one yields a playable response. Returns the candidate formats and
// the video title.
func (a *apiClient) fetchPlayerMetadata(ctx context.Context, videoID string) ([]types.Format, string, error) {
	var lastErr error

	for _, profile := range clientProfiles {
		formats, title, err := a.fetchWithProfile(ctx, videoID, profile)
		if err != nil {
			a.log.Debug("client profile failed", "profile", profile.Name, "video_id", videoID, "error", err)
			lastErr = err
			continue
		}
		a.log.Debug("client profile succeeded", "profile", profile.Name, "video_id", videoID, "formats", len(formats))
		return formats, title, nil
	}

	return nil, "", fmt.Errorf("all client profiles failed: %w", lastErr)
}

func (a *apiClient) fetchWithProfile(ctx context.Context, videoID string, profile clientProfile) ([]types.Format, string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var reqBody playerRequest
	reqBody.Context.Client.ClientName = profile.Name
	reqBody.Context.Client.ClientVersion = profile.Version
	reqBody.Context.Client.AndroidSDK = profile.AndroidSDK
	reqBody.Context.Client.DeviceModel = profile.DeviceModel
	reqBody.VideoID = videoID

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/youtubei/v1/player", bytes.NewReader(payload))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", profile.UserAgent)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("player endpoint returned %d", resp.StatusCode)
	}

	var pr playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, "", fmt.Errorf("decoding player response: %w", err)
	}

	if pr.PlayabilityStatus.Status != "OK" {
		return nil, "", fmt.Errorf("playability %s: %s", pr.PlayabilityStatus.Status, pr.PlayabilityStatus.Reason)
	}

	formats := collectFormats(&pr)
	if len(formats) == 0 {
		return nil, "", fmt.Errorf("playable response carried no formats")
	}
	return formats, pr.VideoDetails.Title, nil
}

// collectFormats flattens the response into candidate formats. Manifest URLs
// come first so the selection tie-break sees them.
func collectFormats(pr *playerResponse) []types.Format {
	var formats []types.Format

	if u := pr.StreamingData.HLSManifestURL; u != "" {
		formats = append(formats, types.Format{URL: u, ManifestURL: u, Ext: "m3u8"})
	}
	if u := pr.StreamingData.DashManifestURL; u != "" {
		formats = append(formats, types.Format{URL: u, ManifestURL: u, Ext: "mpd"})
	}

	for _, f := range pr.StreamingData.Formats {
		if converted, ok := convertAPIFormat(f); ok {
			formats = append(formats, converted)
		}
	}
	for _, f := range pr.StreamingData.AdaptiveFormats {
		if converted, ok := convertAPIFormat(f); ok {
			formats = append(formats, converted)
		}
	}
	return formats
}

// convertAPIFormat maps one endpoint format to the shared type. Cipher-
// protected formats are returned with the unsigned URL from the cipher blob;
// real signature decryption is not implemented, so such URLs may not play.
func convertAPIFormat(f apiFormat) (types.Format, bool) {
	streamURL := f.URL
	if streamURL == "" && f.SignatureCipher != "" {
		values, err := url.ParseQuery(f.SignatureCipher)
		if err != nil {
			return types.Format{}, false
		}
		streamURL = values.Get("url")
	}
	if streamURL == "" {
		return types.Format{}, false
	}

	acodec, vcodec := codecsFromMime(f.MimeType)
	return types.Format{
		URL:    streamURL,
		ACodec: acodec,
		VCodec: vcodec,
		Height: f.Height,
	}, true
}

// codecsFromMime derives track presence from a mimeType attribute such as
// `video/mp4; codecs="avc1.64001F, mp4a.40.2"`.
func codecsFromMime(mime string) (acodec, vcodec string) {
	acodec, vcodec = "none", "none"

	start := strings.Index(mime, `codecs="`)
	if start < 0 {
		return acodec, vcodec
	}
	codecs := mime[start+len(`codecs="`):]
	if end := strings.Index(codecs, `"`); end >= 0 {
		codecs = codecs[:end]
	}

	for _, c := range strings.Split(codecs, ",") {
		c = strings.TrimSpace(c)
		switch {
		case strings.HasPrefix(c, "avc"), strings.HasPrefix(c, "vp9"), strings.HasPrefix(c, "vp09"), strings.HasPrefix(c, "av01"):
			vcodec = c
		case strings.HasPrefix(c, "mp4a"), strings.HasPrefix(c, "opus"):
			acodec = c
		}
	}
	return acodec, vcodec
}
