package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/piecetree/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "piecetree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.False(t, cfg.Logging.JSON)
	assert.Empty(t, cfg.Otel.Endpoint)
	assert.Equal(t, config.DefaultBenchOps, cfg.Bench.Ops)
	assert.Equal(t, config.DefaultBenchDocSize, cfg.Bench.DocSize)
	assert.Equal(t, int64(config.DefaultBenchSeed), cfg.Bench.Seed)
	assert.Equal(t, config.DefaultLSPLogMaxSizeMB, cfg.LSP.LogMaxSizeMB)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
logging:
  level: debug
  json: true
otel:
  endpoint: localhost:4317
  insecure: true
  sample_ratio: 0.25
lsp:
  debug_addr: ":6060"
  log_file: /tmp/piecetree-lsp.log
bench:
  ops: 500
  doc_size: 4096
  seed: 7
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "localhost:4317", cfg.Otel.Endpoint)
	assert.True(t, cfg.Otel.Insecure)
	assert.InDelta(t, 0.25, cfg.Otel.SampleRatio, 1e-9)
	assert.Equal(t, ":6060", cfg.LSP.DebugAddr)
	assert.Equal(t, 500, cfg.Bench.Ops)
	assert.Equal(t, 4096, cfg.Bench.DocSize)
	assert.Equal(t, int64(7), cfg.Bench.Seed)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	// No explicit path and no piecetree.yaml in the search path: defaults
	// apply without error.
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "bad log level",
			content: "logging:\n  level: loud\n",
			wantErr: config.ErrInvalidLogLevel,
		},
		{
			name:    "sample ratio above one",
			content: "otel:\n  sample_ratio: 1.5\n",
			wantErr: config.ErrInvalidSampleRatio,
		},
		{
			name:    "zero bench ops",
			content: "bench:\n  ops: 0\n",
			wantErr: config.ErrInvalidBenchOps,
		},
		{
			name:    "negative doc size",
			content: "bench:\n  doc_size: -1\n",
			wantErr: config.ErrInvalidBenchDoc,
		},
		{
			name:    "zero log max size",
			content: "lsp:\n  log_max_size_mb: 0\n",
			wantErr: config.ErrInvalidLogMaxSize,
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, testCase.content))
			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	// Environment mutation: not parallel.
	t.Setenv("PIECETREE_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig(writeConfig(t, "logging:\n  level: info\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}
