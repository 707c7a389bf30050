package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the outbox relay.
type Metrics struct {
	Published       prometheus.Counter
	PublishFailures prometheus.Counter
	BatchSize       prometheus.Histogram
}

// NewMetrics registers relay metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "squadlink_audit_outbox_published_total",
			Help: "Total number of audit entries published from the outbox",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "squadlink_audit_outbox_publish_failures_total",
			Help: "Total number of outbox batches that failed to publish",
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "squadlink_audit_outbox_batch_size",
			Help:    "Number of audit entries per published outbox batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

func (m *Metrics) observeBatch(n int) {
	m.Published.Add(float64(n))
	m.BatchSize.Observe(float64(n))
}

func (m *Metrics) incFailures() {
	m.PublishFailures.Inc()
}
