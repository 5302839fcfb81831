package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the batch registry.
type Metrics struct {
	BatchesMinted      prometheus.Counter
	BatchesUpdated     prometheus.Counter
	BatchesTransferred prometheus.Counter

	// Rejected operations by operation and error kind
	Rejections *prometheus.CounterVec

	// Verification outcomes: "valid", "expired", "not_found"
	Verifications *prometheus.CounterVec

	// Registry size, tracked against capacity
	BatchCount prometheus.Gauge

	OperationLatency *prometheus.HistogramVec
}

// New registers the registry metrics with the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the registry metrics with reg. Tests pass a fresh
// registry to avoid duplicate registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BatchesMinted: factory.NewCounter(prometheus.CounterOpts{
			Name: "batchledger_batches_minted_total",
			Help: "Total batches minted",
		}),
		BatchesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "batchledger_batches_updated_total",
			Help: "Total batch amendments applied",
		}),
		BatchesTransferred: factory.NewCounter(prometheus.CounterOpts{
			Name: "batchledger_batches_transferred_total",
			Help: "Total custody transfers applied",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "batchledger_rejections_total",
			Help: "Rejected registry operations by operation and error kind",
		}, []string{"operation", "kind"}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "batchledger_verifications_total",
			Help: "Batch verification outcomes",
		}, []string{"outcome"}),
		BatchCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "batchledger_batches",
			Help: "Number of batches ever minted",
		}),
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batchledger_operation_duration_seconds",
			Help:    "Duration of registry operations including gateway and fee calls",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementMinted(count uint64) {
	if m != nil {
		m.BatchesMinted.Inc()
		m.BatchCount.Set(float64(count))
	}
}

func (m *Metrics) IncrementUpdated() {
	if m != nil {
		m.BatchesUpdated.Inc()
	}
}

func (m *Metrics) IncrementTransferred() {
	if m != nil {
		m.BatchesTransferred.Inc()
	}
}

// IncrementRejection records a failed operation under its error kind.
func (m *Metrics) IncrementRejection(operation, kind string) {
	if m != nil {
		m.Rejections.WithLabelValues(operation, kind).Inc()
	}
}

func (m *Metrics) IncrementVerification(outcome string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome).Inc()
	}
}

// ObserveLatency records how long an operation took.
func (m *Metrics) ObserveLatency(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
