package cmd

import (
	"github.com/spf13/cobra"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, logger, err := newApp()
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer application.Close()

		return application.Migrate()
	},
}
