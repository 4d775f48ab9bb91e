package dto

import (
	"time"

	"github.com/fisioclinic/clinic-backend/internal/models"
)

type CreateAppointmentRequest struct {
	PatientID       string  `json:"patient_id"`
	TherapistID     string  `json:"therapist_id"`
	ScheduledAt     string  `json:"scheduled_at"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// UpdateAppointmentRequest leaves nil fields unchanged.
type UpdateAppointmentRequest struct {
	ScheduledAt     *string `json:"scheduled_at,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	Status          *string `json:"status,omitempty"`
}

type RescheduleRequest struct {
	ScheduledAt string `json:"scheduled_at"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type CompleteAppointmentRequest struct {
	Report    string  `json:"report"`
	Evolution *string `json:"evolution,omitempty"`
}

type AppointmentListQuery struct {
	Page        int    `query:"page"`
	Limit       int    `query:"limit"`
	Search      string `query:"search"`
	Status      string `query:"status"`
	From        string `query:"from"`
	To          string `query:"to"`
	PatientID   string `query:"patient_id"`
	TherapistID string `query:"therapist_id"`
}

func (q AppointmentListQuery) Paging() ListQuery {
	lq := ListQuery{Page: q.Page, Limit: q.Limit}
	lq.Normalize()
	return lq
}

type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// AgendaResponse is a party's appointments over a period.
type AgendaResponse struct {
	Party        interface{}          `json:"party"`
	Period       Period               `json:"period"`
	Total        int                  `json:"total"`
	Appointments []models.Appointment `json:"appointments"`
}

type AvailabilityResponse struct {
	At         time.Time          `json:"at"`
	Total      int                `json:"total"`
	Therapists []models.Therapist `json:"therapists"`
}
