package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/application/notification"
	domorder "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *captureWriter) Close() error { return nil }

func sampleNotice() notification.Notice {
	return notification.Notice{
		Kind:        notification.KindNewOrder,
		RecipientID: "farmer-a",
		OrderID:     "ord-1",
		TotalAmount: 42,
		Lines:       []domorder.ConfirmedLine{{ProductID: "tomato", OwnerID: "farmer-a", Quantity: 2}},
		OccurredAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaNotifierWritesKeyedJSON(t *testing.T) {
	w := &captureWriter{}
	n := NewKafkaNotifier(w, "order-notifications")

	require.NoError(t, n.Notify(context.Background(), sampleNotice()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ord-1", string(w.msgs[0].Key))

	var got notification.Notice
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, sampleNotice(), got)
	assert.Equal(t, "new_order", headerCarrier{msg: &w.msgs[0]}.Get("notice_kind"))
}

func TestKafkaNotifierPropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	w := &captureWriter{}
	require.NoError(t, NewKafkaNotifier(w, "t").Notify(ctx, sampleNotice()))
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", headerCarrier{msg: &w.msgs[0]}.Get("traceparent"))
}

func TestKafkaNotifierWrapsWriteErrors(t *testing.T) {
	boom := errors.New("leader not available")
	err := NewKafkaNotifier(&captureWriter{err: boom}, "t").Notify(context.Background(), sampleNotice())
	assert.ErrorIs(t, err, boom)
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))
}

func TestLogNotifierNeverFails(t *testing.T) {
	n := NewLogNotifier(observability.NopLogger())
	assert.Equal(t, "log", n.Name())
	assert.NoError(t, n.Notify(context.Background(), sampleNotice()))
}
