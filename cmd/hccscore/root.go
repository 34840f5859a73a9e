package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/hccscore/internal/config"
	"github.com/gyeh/hccscore/internal/exitcode"
	"github.com/gyeh/hccscore/internal/logging"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "hccscore",
	Short: "HCC risk adjustment scorer",
	Long:  "Scores a member table against one or more CMS-HCC model years and blends the adjusted scores.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("HCCSCORE_DB_URL"), "Postgres connection string (or set HCCSCORE_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&cfg.ConfigPath, "config", "", "Path to YAML config with model years")
}

// setup builds the logger and merges the config file. Usage errors exit.
func setup() zerolog.Logger {
	log, err := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcode.UsageError)
	}
	if cfg.ConfigPath != "" {
		if err := cfg.LoadFromFile(cfg.ConfigPath); err != nil {
			log.Error().Err(err).Msg("config load failed")
			os.Exit(exitcode.UsageError)
		}
	}
	return log
}
