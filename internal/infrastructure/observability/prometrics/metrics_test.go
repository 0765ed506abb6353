package prometrics

import (
	"testing"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "", "")

	a := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	b := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	a.Add(1, observability.L("use_case", "order.create"), observability.L("outcome", "success"))
	b.Bind(observability.L("use_case", "order.create"), observability.L("outcome", "success")).Add(2)

	n, err := testutil.GatherAndCount(reg, "usecase_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cv, ok := r.(*registry).counters.Load("usecase_requests_total")
	require.True(t, ok)
	assert.Equal(t, 3.0, testutil.ToFloat64(cv.(*prometheus.CounterVec).WithLabelValues("order.create", "success")))
}

func TestInstrumentsCoverEveryKey(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Instruments(New(reg, "", ""))

	for _, k := range []observability.MetricKey{
		observability.MUsecaseRequests,
		observability.MHTTPRequests,
		observability.MExternalRequests,
		observability.MInventoryCompensations,
		observability.MNotificationsDispatched,
	} {
		assert.Contains(t, counters, k)
	}
	for _, k := range []observability.MetricKey{
		observability.MUsecaseDuration,
		observability.MHTTPRequestDuration,
		observability.MExternalRequestDuration,
	} {
		assert.Contains(t, histograms, k)
	}

	counters[observability.MInventoryCompensations].Add(1, observability.L("reason", "intent_failed"))
	histograms[observability.MUsecaseDuration].Observe(0.1, observability.L("use_case", "order.create"))

	n, err := testutil.GatherAndCount(reg, "inventory_compensations_total", "usecase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
