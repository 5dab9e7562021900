// Package platform resolves video-platform URLs into playable streams via an
// ordered chain of strategies: private player API, external extractor, and a
// blind embed fallback.
package platform

import "regexp"

// idPatterns are tried in order; each captures the 11-character video id.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/live/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([A-Za-z0-9_-]{11})`),
}

// ExtractVideoID pulls the platform-native video id out of any supported URL
// form. Returns false when no pattern matches.
func ExtractVideoID(url string) (string, bool) {
	for _, pattern := range idPatterns {
		if groups := pattern.FindStringSubmatch(url); groups != nil {
			return groups[1], true
		}
	}
	return "", false
}

// WatchURL builds the canonical watch page URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// EmbedURL builds the embed player URL for a video id.
func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}
