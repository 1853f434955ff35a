// Package commands implements CLI command handlers for piecetree.
package commands

import (
	"log/slog"

	"github.com/Sumatoshi-tech/piecetree/pkg/config"
	"github.com/Sumatoshi-tech/piecetree/pkg/observability"
)

// App carries the loaded configuration and observability providers into the
// command handlers. The root command populates it before any subcommand runs.
type App struct {
	Cfg       *config.Config
	Providers observability.Providers
}

// Logger returns the structured logger, falling back to a discard logger
// before initialization (simplifies tests that build commands directly).
func (app *App) Logger() *slog.Logger {
	if app.Providers.Logger != nil {
		return app.Providers.Logger
	}

	return slog.New(slog.DiscardHandler)
}
