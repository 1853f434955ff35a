package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/piecetree/pkg/observability"
)

func recordSpan(t *testing.T, attrs ...attribute.KeyValue) []attribute.KeyValue {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(observability.NewAttributeFilter(recorder, nil)),
	)

	_, span := provider.Tracer("test").Start(context.Background(), "op",
		trace.WithAttributes(attrs...))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)

	return ended[0].Attributes()
}

func TestAttributeFilter_AllowsKnownPrefixes(t *testing.T) {
	t.Parallel()

	kept := recordSpan(t,
		attribute.String("piecetree.op", "insert"),
		attribute.Int("doc.lines", 120),
		attribute.Int("edit.offset", 42),
		attribute.String("lsp.method", "textDocument/didChange"),
	)

	assert.Len(t, kept, 4)
}

func TestAttributeFilter_StripsBlockedAndUnknownKeys(t *testing.T) {
	t.Parallel()

	kept := recordSpan(t,
		attribute.String("doc.uri", "file:///secret/notes.txt"),
		attribute.String("edit.text", "classified"),
		attribute.String("user.name", "somebody"),
		attribute.String("favorite_color", "green"),
		attribute.String("piecetree.op", "delete"),
	)

	require.Len(t, kept, 1)
	assert.Equal(t, "piecetree.op", string(kept[0].Key))
}

func TestAttributeFilter_WarnsWhenLoggerSet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(observability.NewAttributeFilter(recorder, logger)),
	)

	_, span := provider.Tracer("test").Start(context.Background(), "op",
		trace.WithAttributes(attribute.String("doc.uri", "file:///x")))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Empty(t, ended[0].Attributes())
	assert.Contains(t, buf.String(), "attribute blocked by filter")
	assert.Contains(t, buf.String(), "doc.uri")
}
