package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stream-resolver-go/internal/app"
	"stream-resolver-go/pkg/player"
	"stream-resolver-go/pkg/playlistfile"
)

var (
	flagJSON bool
	flagPlay bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url-or-favorite>",
	Short: "Resolve a URL (or a favorites entry by name) into a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFlags()

		application, err := app.New()
		if err != nil {
			return err
		}
		defer application.Shutdown()

		input := resolveFavorite(application.Config.FavoritesFile, args[0])

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		desc, err := application.Resolve(ctx, input)
		if err != nil {
			return fmt.Errorf("resolution failed: %w", err)
		}

		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(desc)
		}

		fmt.Println(player.FormatStreamURL(desc))

		if flagPlay {
			p := player.New(application.Config.Player, application.Log)
			return p.Play(ctx, desc)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&flagJSON, "json", false, "print the full descriptor as JSON")
	resolveCmd.Flags().BoolVar(&flagPlay, "play", false, "launch the configured player")
}

// resolveFavorite swaps a favorites entry name for its URL when the input is
// not itself a URL. Anything unmatched passes through unchanged.
func resolveFavorite(favoritesPath, input string) string {
	if favoritesPath == "" || strings.Contains(input, "://") {
		return input
	}
	entries, err := playlistfile.Load(favoritesPath)
	if err != nil {
		return input
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.Name, input) {
			return entry.URL
		}
	}
	return input
}
