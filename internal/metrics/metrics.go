package metrics

import "github.com/prometheus/client_golang/prometheus"

// Scheduling exposes counters/histograms for appointment operations.
type Scheduling struct {
	operations  *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

func NewScheduling(reg prometheus.Registerer) *Scheduling {
	m := &Scheduling{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "operations_total",
			Help:      "Appointment operations by name and outcome",
		}, []string{"operation", "outcome"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "conflicts_total",
			Help:      "Double-booking attempts rejected, by party",
		}, []string{"party"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "status_transitions_total",
			Help:      "Appointment status changes",
		}, []string{"from", "to"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "operation_duration_seconds",
			Help:      "Latency of appointment operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operations, m.conflicts, m.transitions, m.latency)
	return m
}

func (m *Scheduling) ObserveOperation(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(seconds)
}

func (m *Scheduling) ObserveConflict(party string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(party).Inc()
}

func (m *Scheduling) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}
