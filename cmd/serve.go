package cmd

import (
	"github.com/spf13/cobra"
)

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Run migrations, then serve the HTTP API and the realtime endpoints until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, logger, err := newApp()
		if err != nil {
			return err
		}
		defer logger.Sync()

		return application.Start()
	},
}
