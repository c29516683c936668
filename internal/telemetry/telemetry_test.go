package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_StdoutExporterWritesSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	tp, err := Setup(Config{
		Exporter:       ExporterStdout,
		ServiceName:    "github-mcp",
		ServiceVersion: "test",
		Writer:         &buf,
	})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "tools/call get_user")
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.IsRecording())
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "tools/call get_user")
	assert.Contains(t, buf.String(), "github-mcp")
}

func TestSetup_NoneStillRecords(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tp, err := Setup(Config{Exporter: ExporterNone, ServiceName: "github-mcp"})
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	_, span := otel.Tracer("test").Start(context.Background(), "x")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(Config{Exporter: "zipkin"})
	assert.Error(t, err)
}
