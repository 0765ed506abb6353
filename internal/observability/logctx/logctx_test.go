package logctx

import (
	"context"
	"testing"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	fields []observability.Field
}

func (r *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{fields: append(append([]observability.Field(nil), r.fields...), fields...)}
}
func (r *recordingLogger) Debug(string, ...observability.Field) {}
func (r *recordingLogger) Info(string, ...observability.Field)  {}
func (r *recordingLogger) Warn(string, ...observability.Field)  {}
func (r *recordingLogger) Error(string, ...observability.Field) {}

func TestFromOrFallsBack(t *testing.T) {
	fallback := &recordingLogger{}
	assert.Same(t, fallback, FromOr(context.Background(), fallback))
	assert.NotNil(t, FromOr(context.Background(), nil))

	stored := &recordingLogger{}
	ctx := With(context.Background(), stored)
	assert.Same(t, stored, FromOr(ctx, fallback))
}

func TestWithFieldsStoresDerivedLogger(t *testing.T) {
	base := &recordingLogger{fields: []observability.Field{observability.F("request_id", "r-1")}}
	ctx := With(context.Background(), base)

	ctx, logger := WithFields(ctx, nil, observability.F("order_id", "o-1"))
	require.Same(t, logger, From(ctx))

	got := logger.(*recordingLogger).fields
	assert.Equal(t, []observability.Field{
		observability.F("request_id", "r-1"),
		observability.F("order_id", "o-1"),
	}, got)
	assert.Len(t, base.fields, 1)
}
