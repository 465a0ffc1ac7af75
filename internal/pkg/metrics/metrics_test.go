package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	require.NotNil(t, m.HTTPRequestsTotal)
	require.NotNil(t, m.HTTPRequestDuration)
	require.NotNil(t, m.BookingsTotal)
	require.NotNil(t, m.StadiumLockDuration)
	require.NotNil(t, m.SweptBookingsTotal)
}

func TestMetrics_HTTPRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/bookings", "201").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/bookings", "201").Inc()
	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/bookings", "200").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/bookings", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/bookings", "200")))
}

func TestMetrics_RecordBooking(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.RecordBooking(OutcomeCreated)
	m.RecordBooking(OutcomeCreated)
	m.RecordBooking(OutcomeConflict)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues(OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues(OutcomeConcurrentUpdate)))
}

func TestMetrics_RecordBooking_NilReceiver(t *testing.T) {
	var m *Metrics

	// メトリクス無効時でもパニックしない
	assert.NotPanics(t, func() {
		m.RecordBooking(OutcomeCreated)
		m.RecordSwept(5)
	})
}

func TestMetrics_RecordSwept(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.RecordSwept(3)
	m.RecordSwept(0)
	m.RecordSwept(-1)
	m.RecordSwept(2)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.SweptBookingsTotal))
}
