package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func book(f *fixture, p *models.Patient, th *models.Therapist, when time.Time) (*models.Appointment, error) {
	return f.appointments.Create(context.Background(), &dto.CreateAppointmentRequest{
		PatientID:   p.ID.String(),
		TherapistID: th.ID.String(),
		ScheduledAt: when.Format(time.RFC3339),
	})
}

func TestCreate_TherapistDoubleBooking(t *testing.T) {
	f := newFixture(t)
	th := f.therapist(t, "Carla", "C-1")
	p1 := f.patient(t, "Ana", "11111111111")
	p2 := f.patient(t, "Bruno", "22222222222")
	p3 := f.patient(t, "Caio", "33333333333")

	first, err := book(f, p1, th, at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, first.Status)
	require.NotNil(t, first.Patient)
	assert.Equal(t, "Ana", first.Patient.Name)

	_, err = book(f, p2, th, at(10, 20))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, PartyTherapist, partyOf(err))
	expected := `
# HELP clinic_scheduling_conflicts_total Double-booking attempts rejected, by party
# TYPE clinic_scheduling_conflicts_total counter
clinic_scheduling_conflicts_total{party="THERAPIST"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "clinic_scheduling_conflicts_total"))

	_, err = book(f, p3, th, at(11, 5))
	assert.NoError(t, err)
}

func TestCreate_WindowBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		offset  time.Duration
		wantErr bool
	}{
		{"same instant", 0, true},
		{"59 minutes later", 59 * time.Minute, true},
		{"exactly 60 minutes later", 60 * time.Minute, false},
		{"59 minutes earlier", -59 * time.Minute, true},
		{"exactly 60 minutes earlier", -60 * time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			th := f.therapist(t, "Carla", "C-1")
			p1 := f.patient(t, "Ana", "11111111111")
			p2 := f.patient(t, "Bruno", "22222222222")

			_, err := book(f, p1, th, at(10, 0))
			require.NoError(t, err)
			_, err = book(f, p2, th, at(10, 0).Add(tt.offset))
			if tt.wantErr {
				assert.True(t, IsKind(err, KindConflict), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreate_PatientDoubleBooking(t *testing.T) {
	f := newFixture(t)
	t1 := f.therapist(t, "Carla", "C-1")
	t2 := f.therapist(t, "Diego", "C-2")
	p := f.patient(t, "Ana", "11111111111")

	_, err := book(f, p, t1, at(14, 0))
	require.NoError(t, err)

	_, err = book(f, p, t2, at(14, 30))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, PartyPatient, partyOf(err))
}

func TestCreate_NonBlockingStatusesFreeTheSlot(t *testing.T) {
	for _, st := range models.NonBlockingStatuses {
		t.Run(string(st), func(t *testing.T) {
			f := newFixture(t)
			th := f.therapist(t, "Carla", "C-1")
			p1 := f.patient(t, "Ana", "11111111111")
			p2 := f.patient(t, "Bruno", "22222222222")
			f.appointment(t, p1, th, at(9, 0), st)

			_, err := book(f, p2, th, at(9, 0))
			assert.NoError(t, err)
		})
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	th := f.therapist(t, "Carla", "C-1")
	p := f.patient(t, "Ana", "11111111111")
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.CreateAppointmentRequest
		kind Kind
	}{
		{"bad patient id", dto.CreateAppointmentRequest{PatientID: "x", TherapistID: th.ID.String(), ScheduledAt: "2030-03-04T10:00:00"}, KindValidation},
		{"missing instant", dto.CreateAppointmentRequest{PatientID: p.ID.String(), TherapistID: th.ID.String()}, KindValidation},
		{"duration too short", dto.CreateAppointmentRequest{PatientID: p.ID.String(), TherapistID: th.ID.String(), ScheduledAt: "2030-03-04T10:00:00", DurationMinutes: intPtr(5)}, KindValidation},
		{"unknown patient", dto.CreateAppointmentRequest{PatientID: uuid.NewString(), TherapistID: th.ID.String(), ScheduledAt: "2030-03-04T10:00:00"}, KindNotFound},
		{"unknown therapist", dto.CreateAppointmentRequest{PatientID: p.ID.String(), TherapistID: uuid.NewString(), ScheduledAt: "2030-03-04T10:00:00"}, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.appointments.Create(ctx, &req)
			assert.Equal(t, tt.kind, KindOf(err), "got %v", err)
		})
	}
}

func TestCreate_InactivePartyRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.therapist(t, "Carla", "C-1")
	p := f.patient(t, "Ana", "11111111111")
	th.Active = false
	require.NoError(t, f.store.SaveTherapist(ctx, th))

	_, err := book(f, p, th, at(10, 0))
	assert.True(t, IsKind(err, KindInvalidState))
}

func TestCreate_ConcurrentBookingsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	th := f.therapist(t, "Carla", "C-1")

	const n = 8
	patients := make([]*models.Patient, n)
	for i := range patients {
		patients[i] = f.patient(t, "Paciente", string(rune('0'+i))+"0000000000")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(p *models.Patient) {
			defer wg.Done()
			_, err := book(f, p, th, at(16, 0))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if IsKind(err, KindConflict) {
				conflicts++
			}
		}(patients[i])
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestUpdate_StatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.therapist(t, "Carla", "C-1")
	p := f.patient(t, "Ana", "11111111111")
	a, err := book(f, p, th, at(10, 0))
	require.NoError(t, err)

	_, err = f.appointments.Update(ctx, a.ID, &dto.UpdateAppointmentRequest{Status: strPtr("concluida")})
	assert.True(t, IsKind(err, KindInvalidState))

	_, err = f.appointments.Update(ctx, a.ID, &dto.UpdateAppointmentRequest{Status: strPtr("bogus")})
	assert.True(t, IsKind(err, KindValidation))

	got, err := f.appointments.Update(ctx, a.ID, &dto.UpdateAppointmentRequest{Status: strPtr("CONFIRMADA")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	got, err = f.appointments.Update(ctx, a.ID, &dto.UpdateAppointmentRequest{Status: strPtr("CONFIRMADA"), Notes: strPtr("trazer exames")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, "trazer exames", got.Notes)
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.therapist(t, "Carla", "C-1")
	p1 := f.patient(t, "Ana", "11111111111")
	p2 := f.patient(t, "Bruno", "22222222222")

	a, err := book(f, p1, th, at(10, 0))
	require.NoError(t, err)
	_, err = book(f, p2, th, at(12, 0))
	require.NoError(t, err)

	t.Run("own slot does not clash", func(t *testing.T) {
		got, err := f.appointments.Reschedule(ctx, a.ID, &dto.RescheduleRequest{ScheduledAt: at(10, 30).Format(time.RFC3339)})
		require.NoError(t, err)
		assert.True(t, got.ScheduledAt.Equal(at(10, 30)))
	})

	t.Run("clash with another booking", func(t *testing.T) {
		_, err := f.appointments.Reschedule(ctx, a.ID, &dto.RescheduleRequest{ScheduledAt: at(11, 30).Format(time.RFC3339)})
		assert.True(t, IsKind(err, KindConflict))
	})

	t.Run("confirmed cannot move", func(t *testing.T) {
		_, err := f.appointments.Update(ctx, a.ID, &dto.UpdateAppointmentRequest{Status: strPtr("CONFIRMADA")})
		require.NoError(t, err)
		_, err = f.appointments.Reschedule(ctx, a.ID, &dto.RescheduleRequest{ScheduledAt: at(8, 0).Format(time.RFC3339)})
		assert.True(t, IsKind(err, KindInvalidState))
	})

	t.Run("missing appointment", func(t *testing.T) {
		_, err := f.appointments.Reschedule(ctx, uuid.New(), &dto.RescheduleRequest{ScheduledAt: at(8, 0).Format(time.RFC3339)})
		assert.True(t, IsKind(err, KindNotFound))
	})
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.therapist(t, "Carla", "C-1")
	p := f.patient(t, "Ana", "11111111111")

	a := f.appointment(t, p, th, at(10, 0), models.StatusScheduled)
	a.Notes = "primeira sessão"
	a.Patient, a.Therapist = nil, nil
	require.NoError(t, f.store.SaveAppointment(ctx, a))

	_, err := f.appointments.Cancel(ctx, a.ID, &dto.CancelAppointmentRequest{Reason: "  "})
	assert.True(t, IsKind(err, KindValidation))

	got, err := f.appointments.Cancel(ctx, a.ID, &dto.CancelAppointmentRequest{Reason: "paciente viajou"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, "primeira sessão\n\nCANCELADA: paciente viajou", got.Notes)

	_, err = f.appointments.Cancel(ctx, a.ID, &dto.CancelAppointmentRequest{Reason: "de novo"})
	assert.True(t, IsKind(err, KindInvalidState))

	done := f.appointment(t, p, th, at(15, 0), models.StatusCompleted)
	_, err = f.appointments.Cancel(ctx, done.ID, &dto.CancelAppointmentRequest{Reason: "x"})
	assert.True(t, IsKind(err, KindInvalidState))
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.therapist(t, "Carla", "C-1")
	p := f.patient(t, "Ana", "11111111111")

	scheduled := f.appointment(t, p, th, at(8, 0), models.StatusScheduled)
	_, err := f.appointments.Complete(ctx, scheduled.ID, &dto.CompleteAppointmentRequest{Report: "ok"})
	assert.True(t, IsKind(err, KindInvalidState))

	confirmed := f.appointment(t, p, th, at(10, 0), models.StatusConfirmed)
	_, err = f.appointments.Complete(ctx, confirmed.ID, &dto.CompleteAppointmentRequest{})
	assert.True(t, IsKind(err, KindValidation))

	got, err := f.appointments.Complete(ctx, confirmed.ID, &dto.CompleteAppointmentRequest{Report: "alongamento", Evolution: strPtr("melhora da dor")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "RELATÓRIO: alongamento\nEVOLUÇÃO: melhora da dor", got.Notes)

	running := f.appointment(t, p, th, at(12, 0), models.StatusInProgress)
	got, err = f.appointments.Complete(ctx, running.ID, &dto.CompleteAppointmentRequest{Report: "fortalecimento"})
	require.NoError(t, err)
	assert.Equal(t, "RELATÓRIO: fortalecimento", got.Notes)
}

func TestDelete_OnlyScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.therapist(t, "Carla", "C-1")
	p := f.patient(t, "Ana", "11111111111")

	confirmed := f.appointment(t, p, th, at(8, 0), models.StatusConfirmed)
	assert.True(t, IsKind(f.appointments.Delete(ctx, confirmed.ID), KindInvalidState))

	scheduled := f.appointment(t, p, th, at(12, 0), models.StatusScheduled)
	require.NoError(t, f.appointments.Delete(ctx, scheduled.ID))
	_, err := f.appointments.Get(ctx, scheduled.ID)
	assert.True(t, IsKind(err, KindNotFound))

	assert.True(t, IsKind(f.appointments.Delete(ctx, uuid.New()), KindNotFound))
}

func TestList_FiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.therapist(t, "Carla", "C-1")
	p := f.patient(t, "Ana", "11111111111")
	early := f.appointment(t, p, th, at(8, 0), models.StatusScheduled)
	late := f.appointment(t, p, th, at(18, 0), models.StatusCancelled)

	items, total, err := f.appointments.List(ctx, &dto.AppointmentListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, late.ID, items[0].ID)
	assert.Equal(t, early.ID, items[1].ID)

	items, total, err = f.appointments.List(ctx, &dto.AppointmentListQuery{Status: "agendada"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, early.ID, items[0].ID)

	_, _, err = f.appointments.List(ctx, &dto.AppointmentListQuery{Status: "nope"})
	assert.True(t, IsKind(err, KindValidation))

	_, _, err = f.appointments.List(ctx, &dto.AppointmentListQuery{From: "yesterday"})
	assert.True(t, IsKind(err, KindValidation))
}
