package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"stream-resolver-go/internal/app"
)

var flagPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFlags()
		if flagPort > 0 {
			os.Setenv("PORT", strconv.Itoa(flagPort))
		}

		application, err := app.New()
		if err != nil {
			return err
		}
		defer application.Shutdown()

		return application.Run()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&flagPort, "port", "p", 0, "listen port (overrides PORT)")
}
