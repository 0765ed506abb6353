package oteltrace

import (
	"context"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New returns a tracer backed by the global provider, so it picks up whatever
// otelsdk.Setup installed.
func New(name string) observability.Tracer {
	if name == "" {
		name = "farmdirect"
	}
	return &tracer{t: otel.Tracer(name)}
}

// NewWithProvider is used by tests that record spans in memory.
func NewWithProvider(tp trace.TracerProvider, name string) observability.Tracer {
	return &tracer{t: tp.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
