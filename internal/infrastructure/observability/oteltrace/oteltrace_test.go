package oteltrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartRecordsAttributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	tr := NewWithProvider(tp, "test")
	ctx, span := tr.Start(context.Background(), "UC.CreateOrder", attribute.String("use_case", "order.create"))
	assert.True(t, span.SpanContext().IsValid())
	_, child := tr.Start(ctx, "child")
	child.End()
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "child", ended[0].Name())
	assert.Equal(t, ended[1].SpanContext().TraceID(), ended[0].SpanContext().TraceID())
	assert.Contains(t, ended[1].Attributes(), attribute.String("use_case", "order.create"))
}
