package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kazumae/fx-forecast-backend/app"
	"github.com/kazumae/fx-forecast-backend/config"
	"github.com/kazumae/fx-forecast-backend/logging"
)

var logLevel string

var rootCMD = &cobra.Command{
	Use:   "fxforecast",
	Short: "FX forecast pattern analysis backend",
	Long: `A backend for FX chart forecasts. It aggregates pattern statistics
from reviewed forecasts, finds similar historical setups, answers questions
on forecast threads and exports learning data.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCMD.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCMD.AddCommand(serveCMD)
	rootCMD.AddCommand(migrateCMD)
	rootCMD.AddCommand(analyzeCMD)
	rootCMD.AddCommand(learningCMD)
}

// newApp loads configuration and builds the logger and application
func newApp() (*app.App, *zap.Logger, error) {
	cfg := config.LoadFromEnv()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("logger setup failed: %w", err)
	}
	if !cfg.EnvFileLoaded {
		logger.Debug("No .env file found, using environment only")
	}
	return app.New(cfg, logger), logger, nil
}
