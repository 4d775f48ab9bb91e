package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSchedulingMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewScheduling(reg)

	m.ObserveOperation("create", "ok", 0.02)
	m.ObserveOperation("create", "conflict", 0.01)
	m.ObserveConflict("THERAPIST")
	m.ObserveConflict("THERAPIST")
	m.ObserveTransition("AGENDADA", "CONFIRMADA")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("create", "ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.conflicts.WithLabelValues("THERAPIST")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transitions.WithLabelValues("AGENDADA", "CONFIRMADA")))
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *Scheduling
	m.ObserveOperation("create", "ok", 0.1)
	m.ObserveConflict("PATIENT")
	m.ObserveTransition("AGENDADA", "CANCELADA")
}
