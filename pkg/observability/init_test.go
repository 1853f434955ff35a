package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/piecetree/pkg/observability"
)

func TestInit_NoEndpointUsesNoopProviders(t *testing.T) {
	cfg := observability.DefaultConfig()

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Logger)

	// Spans from the noop tracer carry no recording overhead.
	_, span := providers.Tracer.Start(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	assert.Equal(t, "piecetree", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Positive(t, cfg.ShutdownTimeoutSec)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("malformed"))

	headers := observability.ParseOTLPHeaders("authorization=Bearer tok, x-tenant=edit")
	assert.Equal(t, map[string]string{
		"authorization": "Bearer tok",
		"x-tenant":      "edit",
	}, headers)
}
