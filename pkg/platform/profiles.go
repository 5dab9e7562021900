package platform

// clientProfile is one client-impersonation identity for the private player
// API. Profiles are tried in declaration order until one yields a playable
// response; non-web clients often receive unciphered stream URLs.
type clientProfile struct {
	Name        string
	Version     string
	UserAgent   string
	AndroidSDK  int
	DeviceModel string
}

var clientProfiles = []clientProfile{
	{
		Name:       "ANDROID",
		Version:    "19.09.37",
		UserAgent:  "com.google.android.youtube/19.09.37 (Linux; U; Android 11) gzip",
		AndroidSDK: 30,
	},
	{
		Name:        "IOS",
		Version:     "19.09.3",
		UserAgent:   "com.google.ios.youtube/19.09.3 (iPhone14,3; U; CPU iOS 15_6 like Mac OS X)",
		DeviceModel: "iPhone14,3",
	},
	{
		Name:      "WEB",
		Version:   "2.20240304.00.00",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	},
	{
		Name:      "TVHTML5_SIMPLY_EMBEDDED_PLAYER",
		Version:   "2.0",
		UserAgent: "Mozilla/5.0 (PlayStation; PlayStation 4/12.00) AppleWebKit/605.1.15 (KHTML, like Gecko)",
	},
}
