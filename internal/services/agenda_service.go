package services

import (
	"context"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/google/uuid"
)

// AgendaService projects a party's appointments over a period.
type AgendaService struct {
	store store.Store
}

func NewAgendaService(st store.Store) *AgendaService {
	return &AgendaService{store: st}
}

func (s *AgendaService) ForTherapist(ctx context.Context, therapistID uuid.UUID, from, to time.Time) (*dto.AgendaResponse, error) {
	if err := checkPeriod(from, to); err != nil {
		return nil, err
	}
	therapist, err := s.store.GetTherapist(ctx, therapistID)
	if err != nil {
		return nil, fromStore(err, "therapist")
	}
	return s.project(ctx, therapist, store.AppointmentFilter{TherapistID: &therapistID}, from, to)
}

func (s *AgendaService) ForPatient(ctx context.Context, patientID uuid.UUID, from, to time.Time) (*dto.AgendaResponse, error) {
	if err := checkPeriod(from, to); err != nil {
		return nil, err
	}
	patient, err := s.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fromStore(err, "patient")
	}
	return s.project(ctx, patient, store.AppointmentFilter{PatientID: &patientID}, from, to)
}

func checkPeriod(from, to time.Time) error {
	if from.IsZero() {
		return validation("from is required")
	}
	if to.IsZero() {
		return validation("to is required")
	}
	return nil
}

func (s *AgendaService) project(ctx context.Context, party interface{}, f store.AppointmentFilter, from, to time.Time) (*dto.AgendaResponse, error) {
	resp := &dto.AgendaResponse{
		Party:        party,
		Period:       dto.Period{From: from, To: to},
		Appointments: []models.Appointment{},
	}
	if from.After(to) {
		return resp, nil
	}

	f.From, f.To = &from, &to
	items, total, err := s.store.ListAppointments(ctx, f, store.Page{}, store.OrderAsc)
	if err != nil {
		return nil, fromStore(err, "appointments")
	}
	if items != nil {
		resp.Appointments = items
	}
	resp.Total = int(total)
	return resp, nil
}
