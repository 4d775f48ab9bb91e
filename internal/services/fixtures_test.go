package services

import (
	"context"
	"testing"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/metrics"
	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store        *store.MemoryStore
	registry     *prometheus.Registry
	metrics      *metrics.Scheduling
	checker      *ConflictChecker
	appointments *AppointmentService
	availability *AvailabilityService
	agenda       *AgendaService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	reg := prometheus.NewRegistry()
	m := metrics.NewScheduling(reg)
	checker := NewConflictChecker(st, DefaultSlotRadius)
	return &fixture{
		store:        st,
		registry:     reg,
		metrics:      m,
		checker:      checker,
		appointments: NewAppointmentService(st, checker, m),
		availability: NewAvailabilityService(st, checker),
		agenda:       NewAgendaService(st),
	}
}

func (f *fixture) therapist(t *testing.T, name, license string) *models.Therapist {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Name: name, Email: license + "@clinic.test", Role: models.RoleTherapist}
	require.NoError(t, f.store.CreateUser(ctx, u))
	th := &models.Therapist{UserID: u.ID, License: license, Specialty: "Ortopedia", Active: true}
	require.NoError(t, f.store.CreateTherapist(ctx, th))
	return th
}

func (f *fixture) patient(t *testing.T, name, cpf string) *models.Patient {
	t.Helper()
	p := &models.Patient{Name: name, NationalID: cpf, BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), Active: true}
	require.NoError(t, f.store.CreatePatient(context.Background(), p))
	return p
}

// appointment inserts directly, bypassing conflict checks.
func (f *fixture) appointment(t *testing.T, p *models.Patient, th *models.Therapist, at time.Time, status models.AppointmentStatus) *models.Appointment {
	t.Helper()
	a := &models.Appointment{PatientID: p.ID, TherapistID: th.ID, ScheduledAt: at, Status: status}
	require.NoError(t, f.store.CreateAppointment(context.Background(), a))
	return a
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
