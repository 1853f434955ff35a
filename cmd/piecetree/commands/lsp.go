package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Sumatoshi-tech/piecetree/internal/lspserver"
	"github.com/Sumatoshi-tech/piecetree/pkg/config"
	"github.com/Sumatoshi-tech/piecetree/pkg/observability"
)

const debugShutdownTimeout = 5 * time.Second

// LSPCommand holds the flags of the lsp command.
type LSPCommand struct {
	debugAddr string
	logFile   string
}

// NewLSPCommand creates the lsp command: serve the engine over the Language
// Server Protocol on stdio.
func NewLSPCommand(app *App) *cobra.Command {
	lc := &LSPCommand{}

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Serve documents over the Language Server Protocol on stdio",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lc.applyConfigDefaults(app)

			return lc.run(app)
		},
	}

	cmd.Flags().StringVar(&lc.debugAddr, "debug-addr", "",
		"optional HTTP listener for /metrics, /healthz and /readyz (e.g. 127.0.0.1:9620)")
	cmd.Flags().StringVar(&lc.logFile, "log-file", "",
		"write logs to this file with rotation instead of stderr")

	return cmd
}

func (lc *LSPCommand) applyConfigDefaults(app *App) {
	if app.Cfg == nil {
		return
	}

	if lc.debugAddr == "" {
		lc.debugAddr = app.Cfg.LSP.DebugAddr
	}

	if lc.logFile == "" {
		lc.logFile = app.Cfg.LSP.LogFile
	}
}

func (lc *LSPCommand) run(app *App) error {
	// Stdout carries the protocol stream, so logs go to stderr or a file.
	logger, closeLogs := lc.buildLogger(app)
	defer closeLogs()

	metrics, err := observability.NewREDMetrics(app.Providers.Meter)
	if err != nil {
		return fmt.Errorf("lsp metrics: %w", err)
	}

	if lc.debugAddr != "" {
		debugSrv, err := lspserver.StartDebugListener(lc.debugAddr, app.Providers.Tracer, logger)
		if err != nil {
			return fmt.Errorf("debug listener: %w", err)
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), debugShutdownTimeout)
			defer cancel()

			if err := debugSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("debug listener shutdown", "error", err)
			}
		}()
	}

	logger.Info("lsp server starting", "debug_addr", lc.debugAddr)

	return lspserver.NewServer(logger, metrics).Run()
}

// buildLogger returns the server logger and a close function. With --log-file
// the logger writes JSON through a size-capped rotating writer.
func (lc *LSPCommand) buildLogger(app *App) (*slog.Logger, func()) {
	if lc.logFile == "" {
		if app.Providers.Logger != nil {
			return app.Providers.Logger, func() {}
		}

		return slog.New(slog.NewTextHandler(os.Stderr, nil)), func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   lc.logFile,
		MaxSize:    lc.maxSizeMB(app),
		MaxBackups: lc.maxBackups(app),
	}

	logger := slog.New(slog.NewJSONHandler(rotator, nil))

	return logger, func() {
		if err := rotator.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
		}
	}
}

func (lc *LSPCommand) maxSizeMB(app *App) int {
	if app.Cfg != nil && app.Cfg.LSP.LogMaxSizeMB > 0 {
		return app.Cfg.LSP.LogMaxSizeMB
	}

	return config.DefaultLSPLogMaxSizeMB
}

func (lc *LSPCommand) maxBackups(app *App) int {
	if app.Cfg != nil && app.Cfg.LSP.LogMaxBackups > 0 {
		return app.Cfg.LSP.LogMaxBackups
	}

	return config.DefaultLSPLogMaxBackups
}
