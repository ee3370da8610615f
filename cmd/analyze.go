package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kazumae/fx-forecast-backend/database"
)

var analyzeDays int

var analyzeCMD = &cobra.Command{
	Use:   "analyze <currency-pair>",
	Short: "Print the pattern summary of a currency pair as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeDays < database.MinLookbackDays || analyzeDays > database.MaxLookbackDays {
			return fmt.Errorf("--days must be between %d and %d", database.MinLookbackDays, database.MaxLookbackDays)
		}

		application, logger, err := newApp()
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer application.Close()

		summary, err := application.Analyze(cmd.Context(), strings.ToUpper(args[0]), analyzeDays)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	analyzeCMD.Flags().IntVar(&analyzeDays, "days", database.DefaultLookbackDays, "lookback window in days")
}
