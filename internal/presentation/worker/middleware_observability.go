package workerpresentation

import (
	"context"

	domoutbox "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/outbox"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects a request-scoped logger for an event handler.
// Dynamic fields only: event, aggregate_id, event_id (generated if empty),
// trace_id/span_id of the active span, plus caller-provided low-cardinality
// attributes such as use_case.
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	e domoutbox.Event,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = logctx.FromOr(ctx, observability.NopLogger())
	}

	fields := make([]observability.Field, 0, 6+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if e != nil {
		fields = append(fields, observability.F("event", e.EventName()))
		if key := domoutbox.KeyOf(e); key != "" {
			fields = append(fields, observability.F("aggregate_id", key))
		}
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}
