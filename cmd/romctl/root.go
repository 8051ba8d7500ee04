package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/romkit/internal/config"
	"github.com/joshuapare/romkit/internal/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string

	// Loaded before every command runs.
	cfg      *config.Config
	log      *slog.Logger
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "romctl",
	Short: "Inspect, patch and catalog SNES ROM images",
	Long: `romctl reads and patches SNES cartridge images under region and
checksum rules. Writes run inside transactions backed by on-disk backups,
and findings about the image are kept in a discovery catalog.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return setup() },
	PersistentPostRun: func(cmd *cobra.Command, args []string) { _ = closeLog() },
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default $"+config.EnvVar+")")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger. --verbose lowers
// the log level to debug.
func setup() error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	opts, err := c.LoggerOptions(os.Stderr)
	if err != nil {
		return err
	}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	l, closeFn, err := logger.New(opts)
	if err != nil {
		return err
	}
	cfg, log, closeLog = c, l, closeFn
	return nil
}

// settings returns the loaded config, falling back to defaults when a run
// function is called without setup.
func settings() *config.Config {
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg
}

func logr() *slog.Logger {
	return logger.OrDiscard(log)
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
