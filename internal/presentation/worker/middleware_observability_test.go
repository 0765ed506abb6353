package workerpresentation

import (
	"context"
	"testing"
	"time"

	domorder "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/observability/zaplogger"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithEventContextAddsEventFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zaplogger.New(zap.New(core))

	evt := domorder.OrderConfirmedEvent{OrderID: "ord-7", OccurredAt: time.Now()}
	ctx := WithEventContext(context.Background(), base, evt, map[string]string{
		"use_case": "notify",
		"empty":    "",
	})

	logger := logctx.From(ctx)
	require.NotNil(t, logger)
	logger.Info("handled")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "order.confirmed", fields["event"])
	assert.Equal(t, "ord-7", fields["aggregate_id"])
	assert.Equal(t, "notify", fields["use_case"])
	assert.NotEmpty(t, fields["event_id"])
	assert.NotContains(t, fields, "empty")
	assert.NotContains(t, fields, "trace_id")
}

func TestWithEventContextKeepsGivenEventID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithEventContext(context.Background(), zaplogger.New(zap.New(core)), nil, map[string]string{"event_id": "evt-1"})

	logctx.From(ctx).Info("handled")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "evt-1", logs.All()[0].ContextMap()["event_id"])
}
