package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"healthetl/internal/config"
	"healthetl/internal/logger"
)

// defaultConfigPath is read when --config is not given and the file exists.
const defaultConfigPath = "configs/etl.yaml"

var version = "dev"

// Persistent flag variables.
var (
	flagConfig    string
	flagLogLevel  string
	flagOutputDir string
)

var rootCmd = &cobra.Command{
	Use:   "etl",
	Short: "Fetch, clean and verify public-health and food-safety datasets",
	Long: `etl fetches the FDA substances, GRAS notices, CDC and WHO obesity and
FSIS recall datasets, cleans them into tidy CSV files and verifies the
result with a statistics report.

Usage:
  etl all
  etl fda --output-dir ./out
  etl verify --config configs/etl.yaml`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML configuration file (default "+defaultConfigPath+" when present)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output-dir", "", "Override output.base_path")
}

// loadConfig resolves the configuration and flag overrides and builds the
// logger.
func loadConfig() (*config.Config, *logger.Logger, error) {
	path := flagConfig
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, err
		}
	}

	cfg := config.Default()

	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}

		cfg = loaded
	}

	if flagOutputDir != "" {
		cfg.Output.BasePath = flagOutputDir
	}

	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	log.Debug("configuration loaded", "path", path, "config", cfg.String())

	return cfg, log, nil
}
