package models

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "AGENDADA"
	StatusConfirmed  AppointmentStatus = "CONFIRMADA"
	StatusInProgress AppointmentStatus = "EM_ANDAMENTO"
	StatusCompleted  AppointmentStatus = "CONCLUIDA"
	StatusCancelled  AppointmentStatus = "CANCELADA"
	StatusNoShow     AppointmentStatus = "NAO_COMPARECEU"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []AppointmentStatus{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

// NonBlockingStatuses never take part in double-booking checks.
var NonBlockingStatuses = []AppointmentStatus{StatusCancelled, StatusCompleted, StatusNoShow}

// UnavailableIgnoredStatuses are skipped when deriving free therapists. A
// no-show still hides the therapist for that slot.
var UnavailableIgnoredStatuses = []AppointmentStatus{StatusCancelled, StatusCompleted}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func (s AppointmentStatus) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// CanTransitionTo reports whether next is a legal single step from s.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, v := range transitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// Reschedulable reports whether the scheduled instant may still move.
func (s AppointmentStatus) Reschedulable() bool {
	return s == StatusScheduled
}

type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_appointments_patient_time" json:"patient_id"`
	TherapistID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_appointments_therapist_time" json:"therapist_id"`
	ScheduledAt     time.Time         `gorm:"not null;index;index:idx_appointments_patient_time;index:idx_appointments_therapist_time" json:"scheduled_at"`
	DurationMinutes *int              `json:"duration_minutes,omitempty"`
	Status          AppointmentStatus `gorm:"size:20;not null;default:'AGENDADA';index" json:"status"`
	Notes           string            `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Patient         *Patient          `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"patient,omitempty"`
	Therapist       *Therapist        `gorm:"foreignKey:TherapistID;constraint:OnDelete:CASCADE" json:"therapist,omitempty"`
}

func StatusIn(s AppointmentStatus, set []AppointmentStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
