package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stream-resolver",
	Short: "Resolve web pages and platform URLs into playable streams",
	Long: `stream-resolver turns a web page or video-platform URL into a playable
media stream URL and can relay header-protected streams through a local
HTTP server for playback clients that cannot attach custom headers.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)
}

var flagLogLevel string

// applyFlags maps CLI flags onto the env-var configuration before the app
// loads it.
func applyFlags() {
	if flagLogLevel != "" {
		os.Setenv("LOG_LEVEL", flagLogLevel)
	}
}
