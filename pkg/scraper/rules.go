package scraper

import "regexp"

// MatchKind tells the caller how to interpret an extracted URL.
type MatchKind int

const (
	// KindStream is a directly playable stream URL.
	KindStream MatchKind = iota
	// KindPlatform is a video-platform URL that must go through the
	// platform resolver.
	KindPlatform
	// KindIntermediate is a player-config or redirect URL that must be
	// fetched and searched again before it yields a stream.
	KindIntermediate
)

// Match is the result of applying the extraction rules to a page.
type Match struct {
	URL  string
	Kind MatchKind
}

// Rule pairs a pattern with its interpretation. Rules are data, tried
// strictly in declaration order with first-match-wins semantics.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Kind    MatchKind
	// Build turns the submatch into the extracted URL. When nil, the
	// first capture group is used verbatim.
	Build func(groups []string) string
}

// defaultRules is the ordered extraction rule list applied to page HTML.
var defaultRules = []Rule{
	{
		Name:    "hls-source-variable",
		Pattern: regexp.MustCompile(`(?i)(?:source|file|src)\s*[:=]\s*["'](https?://[^"']+\.m3u8[^"']*)["']`),
		Kind:    KindStream,
	},
	{
		Name:    "platform-video-id",
		Pattern: regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|shorts/|live/)|youtu\.be/)([A-Za-z0-9_-]{11})`),
		Kind:    KindPlatform,
		Build: func(groups []string) string {
			return "https://www.youtube.com/watch?v=" + groups[1]
		},
	},
	{
		Name:    "player-config-file",
		Pattern: regexp.MustCompile(`(?i)["'](https?://[^"']+(?:playerconfig|player_config|config\.json)[^"']*)["']`),
		Kind:    KindIntermediate,
	},
	{
		Name:    "hls-manifest-key",
		Pattern: regexp.MustCompile(`(?i)"?hls(?:Manifest)?Url"?\s*[:=]\s*["']([^"']+)["']`),
		Kind:    KindStream,
	},
	// The <video src> tag stage is handled separately with an HTML parser;
	// see extractVideoTag.
}
