package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kazumae/fx-forecast-backend/database"
	"github.com/kazumae/fx-forecast-backend/patterns"
)

var learningDays int

var learningCMD = &cobra.Command{
	Use:   "learning",
	Short: "Learning data export",
}

var learningCompileCMD = &cobra.Command{
	Use:   "compile",
	Short: "Compile learning data and write the export files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if learningDays <= 0 {
			return fmt.Errorf("--days must be positive")
		}

		application, logger, err := newApp()
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer application.Close()

		data, files, err := application.CompileLearning(cmd.Context(), learningDays)
		if err != nil {
			return err
		}
		for _, f := range files {
			logger.Info("📝 Learning data written", zap.String("file", f))
		}

		fmt.Fprintln(cmd.OutOrStdout(), patterns.FormatLearning(data))
		return nil
	},
}

var learningReportCMD = &cobra.Command{
	Use:   "report",
	Short: "Write today's learning report from the exported snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		if learningDays <= 0 {
			return fmt.Errorf("--days must be positive")
		}

		application, logger, err := newApp()
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer application.Close()

		path, err := application.DailyReport(learningDays)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	learningCMD.PersistentFlags().IntVar(&learningDays, "days", database.DefaultLookbackDays, "lookback window in days")
	learningCMD.AddCommand(learningCompileCMD)
	learningCMD.AddCommand(learningReportCMD)
}
