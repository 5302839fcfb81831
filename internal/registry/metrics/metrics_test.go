package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.IncrementMinted(1)
	m.IncrementMinted(2)
	m.IncrementUpdated()
	m.IncrementTransferred()
	m.IncrementRejection("mint", "DuplicateExternalCode")
	m.IncrementRejection("mint", "DuplicateExternalCode")
	m.IncrementVerification("expired")
	m.ObserveLatency("mint", 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BatchesMinted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BatchCount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesUpdated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTransferred))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rejections.WithLabelValues("mint", "DuplicateExternalCode")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("expired")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationLatency))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementMinted(1)
		m.IncrementUpdated()
		m.IncrementTransferred()
		m.IncrementRejection("mint", "x")
		m.IncrementVerification("valid")
		m.ObserveLatency("mint", time.Millisecond)
	})
}
