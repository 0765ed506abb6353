package otelsdk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpointOnlyInstallsPropagator(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{ServiceName: "order-service"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
	assert.NoError(t, shutdown(context.Background()))
}
