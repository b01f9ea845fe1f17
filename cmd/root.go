package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	cfgpkg "github.com/WattMatt/greencalc-sa-sub011/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	debug         bool
	flagLogFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
	// logger writes diagnostics to stderr; command output goes to stdout.
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

var rootCmd = &cobra.Command{
	Use:   "loadprofile",
	Short: "Turn meter and SCADA exports into a 24-hour load profile",
	Long: `loadprofile reads interval exports from meters and SCADA systems (CSV, TSV or XLSX),
works out which columns hold the timestamp and the reading, normalises units and
folds the data into an average weekday and weekend hourly profile with a plausibility verdict.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.loadprofile/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	logger = newLogger(os.Stderr, cfg.LogFormat, debug)
}

func newLogger(w io.Writer, format string, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// pipelineLogger adapts the CLI logger for one pipeline run.
func pipelineLogger(attrs ...any) analysis.Logger {
	return analysis.NewSlogLogger(logger.With(attrs...))
}
