package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/piecetree/pkg/observability"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	return record
}

func TestTracingHandler_ServiceAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "piecetree", "dev", observability.ModeLSP)
	logger := slog.New(handler)

	logger.Info("document opened")

	record := logLine(t, &buf)
	assert.Equal(t, "piecetree", record["service"])
	assert.Equal(t, "lsp", record["mode"])
	assert.Equal(t, "dev", record["env"])
	assert.NotContains(t, record, "trace_id")
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "piecetree", "", observability.ModeCLI)
	logger := slog.New(handler)

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "edit applied")

	record := logLine(t, &buf)
	assert.Equal(t, spanCtx.TraceID().String(), record["trace_id"])
	assert.Equal(t, spanCtx.SpanID().String(), record["span_id"])
	assert.NotContains(t, record, "env")
}

func TestTracingHandler_WithGroupKeepsServiceAttrsTopLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "piecetree", "", observability.ModeBench)
	logger := slog.New(handler).WithGroup("run")

	logger.Info("workload done", "ops", 100)

	record := logLine(t, &buf)
	assert.Equal(t, "piecetree", record["service"])

	group, ok := record["run"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, float64(100), group["ops"], 0)
}
