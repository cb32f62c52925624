// Package cmd implements the harvester subcommands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"xkcdharvest/internal/config"
	"xkcdharvest/internal/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "harvester incrementally collects comic metadata into JSON Lines partitions.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("log-level") {
			loaded.Logging.Level = logLevel
		}

		if cmd.Flags().Changed("log-format") {
			loaded.Logging.Format = logFormat
		}

		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		cfg = loaded
		log = logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (default "+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json, console")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads path, or DefaultPath when path is empty and that file
// exists, or falls back to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}

	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.LoadConfig(config.DefaultPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", config.DefaultPath, err)
	}

	return config.Default(), nil
}
