// Package main provides the entry point for the piecetree CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/piecetree/cmd/piecetree/commands"
	"github.com/Sumatoshi-tech/piecetree/pkg/config"
	"github.com/Sumatoshi-tech/piecetree/pkg/observability"
	"github.com/Sumatoshi-tech/piecetree/pkg/version"
)

var (
	configPath   string
	logLevel     string
	logJSON      bool
	otlpEndpoint string
)

func main() {
	app := &commands.App{}

	rootCmd := &cobra.Command{
		Use:   "piecetree",
		Short: "Piece-tree text engine - inspect, edit and serve documents",
		Long: `Piecetree stores text as immutable buffers indexed by a balanced
piece tree, giving logarithmic edits and line lookups on large documents.

Commands:
  stats     Load files and report document statistics
  lines     Print a range of lines from a file
  apply     Apply a YAML/JSON edit script to a file
  bench     Run a randomized edit workload
  lsp       Serve documents over the Language Server Protocol`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd, app)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector address")

	rootCmd.AddCommand(commands.NewStatsCommand(app))
	rootCmd.AddCommand(commands.NewLinesCommand(app))
	rootCmd.AddCommand(commands.NewApplyCommand(app))
	rootCmd.AddCommand(commands.NewBenchCommand(app))
	rootCmd.AddCommand(commands.NewLSPCommand(app))
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()

	if app.Providers.Shutdown != nil {
		if shutdownErr := app.Providers.Shutdown(context.Background()); shutdownErr != nil {
			fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", shutdownErr)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and initializes the
// observability providers before any subcommand runs.
func setup(cmd *cobra.Command, app *commands.App) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if logJSON {
		cfg.Logging.JSON = true
	}

	if otlpEndpoint != "" {
		cfg.Otel.Endpoint = otlpEndpoint
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:    "piecetree",
		ServiceVersion: version.Version,
		Environment:    cfg.Otel.Environment,
		Mode:           appMode(cmd),
		OTLPEndpoint:   cfg.Otel.Endpoint,
		OTLPHeaders:    observability.ParseOTLPHeaders(cfg.Otel.Headers),
		OTLPInsecure:   cfg.Otel.Insecure,
		SampleRatio:    cfg.Otel.SampleRatio,
		LogLevel:       slogLevel(cfg.Logging.Level),
		TraceVerbose:   cfg.Otel.Verbose,
		LogJSON:        cfg.Logging.JSON,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	app.Cfg = cfg
	app.Providers = providers

	return nil
}

func appMode(cmd *cobra.Command) observability.AppMode {
	switch cmd.Name() {
	case "lsp":
		return observability.ModeLSP
	case "bench":
		return observability.ModeBench
	default:
		return observability.ModeCLI
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "piecetree %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
