package lspserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/piecetree/pkg/observability"
)

const (
	debugReadHeaderTimeout = 5 * time.Second
	debugReadTimeout       = 10 * time.Second
)

// StartDebugListener serves /metrics (Prometheus scrape), /healthz, and
// /readyz on addr while the LSP loop owns stdio. Every endpoint is wrapped
// in the tracing HTTP middleware. The returned server is already listening;
// the caller shuts it down on exit.
func StartDebugListener(addr string, tracer trace.Tracer, logger *slog.Logger) (*http.Server, error) {
	metricsHandler, _, err := observability.PrometheusHandler()
	if err != nil {
		return nil, fmt.Errorf("debug listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	mux.Handle("/healthz", observability.HealthHandler())
	mux.Handle("/readyz", observability.ReadyHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           observability.HTTPMiddleware(tracer, mux),
		ReadHeaderTimeout: debugReadHeaderTimeout,
		ReadTimeout:       debugReadTimeout,
	}

	go func() {
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("debug listener stopped", "error", serveErr)
		}
	}()

	logger.Info("debug listener started", "addr", addr)

	return srv, nil
}
