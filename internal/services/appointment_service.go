package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/metrics"
	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/google/uuid"
)

const (
	minDurationMinutes = 15
	maxDurationMinutes = 240
)

type AppointmentService struct {
	store   store.Store
	checker *ConflictChecker
	metrics *metrics.Scheduling
}

func NewAppointmentService(st store.Store, checker *ConflictChecker, m *metrics.Scheduling) *AppointmentService {
	return &AppointmentService{store: st, checker: checker, metrics: m}
}

func partyLocks(therapistID, patientID uuid.UUID) []string {
	return []string{"therapist:" + therapistID.String(), "patient:" + patientID.String()}
}

func validateDuration(d *int) error {
	if d == nil {
		return nil
	}
	if *d < minDurationMinutes || *d > maxDurationMinutes {
		return validation("duration_minutes must be between %d and %d", minDurationMinutes, maxDurationMinutes)
	}
	return nil
}

func appendNote(prior, line string) string {
	if strings.TrimSpace(prior) == "" {
		return line
	}
	return prior + "\n\n" + line
}

// observe records the outcome of op in metrics and logs failures.
func (s *AppointmentService) observe(op string, start time.Time, id uuid.UUID, err error) {
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	s.metrics.ObserveOperation(op, outcome, time.Since(start).Seconds())

	if err == nil {
		return
	}
	attrs := []any{"action", "appointment." + op, "error", err.Error()}
	if id != uuid.Nil {
		attrs = append(attrs, "appointment_id", id.String())
	}
	switch KindOf(err) {
	case KindStore, 0:
		slog.Error("appointment operation failed", attrs...)
	case KindConflict:
		if pc := partyOf(err); pc != "" {
			s.metrics.ObserveConflict(string(pc))
		}
		slog.Warn("appointment rejected", attrs...)
	default:
		slog.Debug("appointment rejected", attrs...)
	}
}

func partyOf(err error) PartyKind {
	var pc *PartyConflict
	if errors.As(err, &pc) {
		return pc.Party
	}
	return ""
}

// loadParties fetches and checks both sides of a booking.
func loadParties(ctx context.Context, tx store.Store, patientID, therapistID uuid.UUID) error {
	patient, err := tx.GetPatient(ctx, patientID)
	if err != nil {
		return fromStore(err, "patient")
	}
	if !patient.Active {
		return invalidState("patient is inactive")
	}
	therapist, err := tx.GetTherapist(ctx, therapistID)
	if err != nil {
		return fromStore(err, "therapist")
	}
	if !therapist.Active {
		return invalidState("therapist is inactive")
	}
	return nil
}

// Create books a new AGENDADA appointment after both parties pass the
// conflict check.
func (s *AppointmentService) Create(ctx context.Context, req *dto.CreateAppointmentRequest) (appt *models.Appointment, err error) {
	start := time.Now()
	defer func() {
		var id uuid.UUID
		if appt != nil {
			id = appt.ID
		}
		s.observe("create", start, id, err)
	}()

	patientID, err := ParseID("patient_id", req.PatientID)
	if err != nil {
		return nil, err
	}
	therapistID, err := ParseID("therapist_id", req.TherapistID)
	if err != nil {
		return nil, err
	}
	at, err := ParseInstant("scheduled_at", req.ScheduledAt)
	if err != nil {
		return nil, err
	}
	if err := validateDuration(req.DurationMinutes); err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		if err := tx.LockKeys(ctx, partyLocks(therapistID, patientID)...); err != nil {
			return fromStore(err, "appointment")
		}
		if err := loadParties(ctx, tx, patientID, therapistID); err != nil {
			return err
		}
		if err := s.checker.with(tx).ensureFree(ctx, therapistID, patientID, at, nil); err != nil {
			return err
		}

		a := &models.Appointment{
			PatientID:       patientID,
			TherapistID:     therapistID,
			ScheduledAt:     at,
			DurationMinutes: req.DurationMinutes,
			Status:          models.StatusScheduled,
		}
		if req.Notes != nil {
			a.Notes = *req.Notes
		}
		if err := tx.CreateAppointment(ctx, a); err != nil {
			return fromStore(err, "appointment")
		}
		id = a.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	appt, err = s.get(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	slog.Info("appointment created",
		"action", "appointment.create",
		"appointment_id", appt.ID.String(),
		"therapist_id", therapistID.String(),
		"patient_id", patientID.String(),
		"scheduled_at", at.Format(time.RFC3339),
	)
	return appt, nil
}

func (s *AppointmentService) get(ctx context.Context, st store.Store, id uuid.UUID) (*models.Appointment, error) {
	a, err := st.GetAppointment(ctx, id)
	if err != nil {
		return nil, fromStore(err, "appointment")
	}
	return a, nil
}

// Update changes any of instant, duration, notes and status. Nil fields are
// left as they are.
func (s *AppointmentService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (appt *models.Appointment, err error) {
	start := time.Now()
	defer func() { s.observe("update", start, id, err) }()

	var (
		newAt     *time.Time
		newStatus *models.AppointmentStatus
	)
	if req.ScheduledAt != nil {
		at, err := ParseInstant("scheduled_at", *req.ScheduledAt)
		if err != nil {
			return nil, err
		}
		newAt = &at
	}
	if req.Status != nil {
		st := models.AppointmentStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		if !st.Valid() {
			return nil, validation("unknown status %q", *req.Status)
		}
		newStatus = &st
	}
	if err := validateDuration(req.DurationMinutes); err != nil {
		return nil, err
	}

	var from models.AppointmentStatus
	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		current, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.LockKeys(ctx, partyLocks(current.TherapistID, current.PatientID)...); err != nil {
			return fromStore(err, "appointment")
		}
		if current, err = s.get(ctx, tx, id); err != nil {
			return err
		}
		from = current.Status

		if newAt != nil {
			if !current.Status.Reschedulable() {
				return invalidState("cannot reschedule an appointment with status %s", current.Status)
			}
			if !newAt.Equal(current.ScheduledAt) {
				if err := s.checker.with(tx).ensureFree(ctx, current.TherapistID, current.PatientID, *newAt, &current.ID); err != nil {
					return err
				}
				current.ScheduledAt = *newAt
			}
		}
		if req.DurationMinutes != nil {
			current.DurationMinutes = req.DurationMinutes
		}
		if req.Notes != nil {
			current.Notes = *req.Notes
		}
		if newStatus != nil && *newStatus != current.Status {
			if !current.Status.CanTransitionTo(*newStatus) {
				return invalidState("cannot change status from %s to %s", current.Status, *newStatus)
			}
			current.Status = *newStatus
		}

		current.Patient, current.Therapist = nil, nil
		return fromStore(tx.SaveAppointment(ctx, current), "appointment")
	})
	if err != nil {
		return nil, err
	}

	appt, err = s.get(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != from {
		s.metrics.ObserveTransition(string(from), string(appt.Status))
	}
	slog.Info("appointment updated",
		"action", "appointment.update",
		"appointment_id", id.String(),
		"status", string(appt.Status),
		"scheduled_at", appt.ScheduledAt.Format(time.RFC3339),
	)
	return appt, nil
}

// Reschedule moves the appointment to a new instant.
func (s *AppointmentService) Reschedule(ctx context.Context, id uuid.UUID, req *dto.RescheduleRequest) (*models.Appointment, error) {
	at := req.ScheduledAt
	return s.Update(ctx, id, &dto.UpdateAppointmentRequest{ScheduledAt: &at})
}

// Cancel marks a non-terminal appointment CANCELADA and records the reason
// in its notes.
func (s *AppointmentService) Cancel(ctx context.Context, id uuid.UUID, req *dto.CancelAppointmentRequest) (appt *models.Appointment, err error) {
	start := time.Now()
	defer func() { s.observe("cancel", start, id, err) }()

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, validation("reason is required")
	}

	var from models.AppointmentStatus
	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		current, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return invalidState("cannot cancel an appointment with status %s", current.Status)
		}
		from = current.Status
		current.Status = models.StatusCancelled
		current.Notes = appendNote(current.Notes, "CANCELADA: "+reason)
		current.Patient, current.Therapist = nil, nil
		return fromStore(tx.SaveAppointment(ctx, current), "appointment")
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(models.StatusCancelled))
	slog.Info("appointment cancelled", "action", "appointment.cancel", "appointment_id", id.String(), "from", string(from))
	return s.get(ctx, s.store, id)
}

// Complete closes a CONFIRMADA or EM_ANDAMENTO appointment with a session
// report and optional evolution notes.
func (s *AppointmentService) Complete(ctx context.Context, id uuid.UUID, req *dto.CompleteAppointmentRequest) (appt *models.Appointment, err error) {
	start := time.Now()
	defer func() { s.observe("complete", start, id, err) }()

	report := strings.TrimSpace(req.Report)
	if report == "" {
		return nil, validation("report is required")
	}
	note := "RELATÓRIO: " + report
	if req.Evolution != nil && strings.TrimSpace(*req.Evolution) != "" {
		note += "\nEVOLUÇÃO: " + strings.TrimSpace(*req.Evolution)
	}

	var from models.AppointmentStatus
	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		current, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != models.StatusConfirmed && current.Status != models.StatusInProgress {
			return invalidState("only confirmed or in-progress appointments can be completed, got %s", current.Status)
		}
		from = current.Status
		current.Status = models.StatusCompleted
		current.Notes = appendNote(current.Notes, note)
		current.Patient, current.Therapist = nil, nil
		return fromStore(tx.SaveAppointment(ctx, current), "appointment")
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(models.StatusCompleted))
	slog.Info("appointment completed", "action", "appointment.complete", "appointment_id", id.String(), "from", string(from))
	return s.get(ctx, s.store, id)
}

// Delete removes an appointment that is still AGENDADA.
func (s *AppointmentService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, id, err) }()

	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		current, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != models.StatusScheduled {
			return invalidState("only scheduled appointments can be deleted, got %s", current.Status)
		}
		return fromStore(tx.DeleteAppointment(ctx, id), "appointment")
	})
	if err != nil {
		return err
	}
	slog.Info("appointment deleted", "action", "appointment.delete", "appointment_id", id.String())
	return nil
}

func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return s.get(ctx, s.store, id)
}

// List returns a page of appointments, newest first.
func (s *AppointmentService) List(ctx context.Context, q *dto.AppointmentListQuery) ([]models.Appointment, int64, error) {
	f := store.AppointmentFilter{Search: strings.TrimSpace(q.Search)}

	if q.Status != "" {
		st := models.AppointmentStatus(strings.ToUpper(strings.TrimSpace(q.Status)))
		if !st.Valid() {
			return nil, 0, validation("unknown status %q", q.Status)
		}
		f.Status = &st
	}
	if q.From != "" {
		from, err := ParseInstant("from", q.From)
		if err != nil {
			return nil, 0, err
		}
		f.From = &from
	}
	if q.To != "" {
		to, err := ParseInstant("to", q.To)
		if err != nil {
			return nil, 0, err
		}
		f.To = &to
	}
	if q.PatientID != "" {
		id, err := ParseID("patient_id", q.PatientID)
		if err != nil {
			return nil, 0, err
		}
		f.PatientID = &id
	}
	if q.TherapistID != "" {
		id, err := ParseID("therapist_id", q.TherapistID)
		if err != nil {
			return nil, 0, err
		}
		f.TherapistID = &id
	}

	paging := q.Paging()
	items, total, err := s.store.ListAppointments(ctx, f, store.Page{Limit: paging.Limit, Offset: paging.Offset()}, store.OrderDesc)
	if err != nil {
		return nil, 0, fromStore(err, "appointments")
	}
	return items, total, nil
}
