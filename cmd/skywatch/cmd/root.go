package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tmarini/skywatch/internal/config"
	"github.com/tmarini/skywatch/pkg/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skywatch",
	Short: "ADS-B behavior detection service",
	Long: `Skywatch polls live ADS-B telemetry and detects noteworthy aircraft
behavior: loiter and survey flight patterns, close formations and
pursuits, operational anomalies, and military traffic. Events are
persisted to SQLite and CSV and can be forwarded to Telegram.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (TOML)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// setup loads the configuration and builds the logger shared by all
// subcommands.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, log, nil
}
