package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Transition("payment", "TPS-01", "TPS-02")
	m.Transition("payment", "TPS-01", "TPS-02")
	m.ProviderRequest("create_refund", time.Now(), errors.New("declined"))
	m.LockWait(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("payment", "TPS-01", "TPS-02")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerRequests.WithLabelValues("create_refund", "error")))

	_, err = New(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition("transaction", "TS-01", "TS-02")
		m.ProviderRequest("poll_status", time.Now(), nil)
		m.LockWait(time.Second)
	})
}
