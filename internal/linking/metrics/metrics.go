package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the link engine.
type Metrics struct {
	// Resolution outcomes: unchanged, flipped, no_primary, conflict, error
	Resolutions *prometheus.CounterVec

	// Individual isPrimary flips by direction (promoted, demoted)
	PrimaryFlips *prometheus.CounterVec

	SecurityFindings      prometheus.Counter
	SecurityChecksSkipped prometheus.Counter

	ResolveLatency prometheus.Histogram

	// Privilege guard calls by outcome (ok, error, timeout)
	GuardLatency *prometheus.HistogramVec
	GuardCircuit prometheus.Gauge

	RemediationRuns prometheus.Counter
	LinkMutations   *prometheus.CounterVec
}

// New registers link engine metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "squadlink_resolutions_total",
			Help: "Total primary link resolutions by outcome",
		}, []string{"outcome"}),

		PrimaryFlips: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "squadlink_primary_flips_total",
			Help: "Total isPrimary flag changes by direction",
		}, []string{"direction"}),

		SecurityFindings: factory.NewCounter(prometheus.CounterOpts{
			Name: "squadlink_security_findings_total",
			Help: "Privileged identities found resting on a primary link below the confidence floor",
		}),

		SecurityChecksSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "squadlink_security_checks_skipped_total",
			Help: "Resolutions whose confidence floor check was skipped because the privilege guard was unavailable",
		}),

		ResolveLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "squadlink_resolve_duration_seconds",
			Help:    "Duration of a primary link resolution including the privilege check",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		GuardLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "squadlink_privilege_guard_duration_seconds",
			Help:    "Duration of privilege guard queries by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}, []string{"outcome"}),

		GuardCircuit: factory.NewGauge(prometheus.GaugeOpts{
			Name: "squadlink_privilege_guard_circuit_open",
			Help: "Privilege guard circuit breaker state (0=closed, 1=open)",
		}),

		RemediationRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "squadlink_remediation_runs_total",
			Help: "Total security remediation passes",
		}),

		LinkMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "squadlink_link_mutations_total",
			Help: "Link writes by kind (created, updated, removed) and source",
		}, []string{"kind", "source"}),
	}
}

func (m *Metrics) IncResolution(outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncFlip(promoted bool) {
	if m == nil {
		return
	}
	direction := "demoted"
	if promoted {
		direction = "promoted"
	}
	m.PrimaryFlips.WithLabelValues(direction).Inc()
}

func (m *Metrics) IncSecurityFinding() {
	if m != nil {
		m.SecurityFindings.Inc()
	}
}

func (m *Metrics) IncSecurityCheckSkipped() {
	if m != nil {
		m.SecurityChecksSkipped.Inc()
	}
}

func (m *Metrics) ObserveResolveLatency(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}

// ObserveGuardCall implements guard.Observer.
func (m *Metrics) ObserveGuardCall(outcome string, d time.Duration) {
	if m != nil {
		m.GuardLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// SetGuardCircuitOpen implements guard.Observer.
func (m *Metrics) SetGuardCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.GuardCircuit.Set(1)
	} else {
		m.GuardCircuit.Set(0)
	}
}

func (m *Metrics) IncRemediationRun() {
	if m != nil {
		m.RemediationRuns.Inc()
	}
}

func (m *Metrics) IncLinkMutation(kind, source string) {
	if m != nil {
		m.LinkMutations.WithLabelValues(kind, source).Inc()
	}
}
