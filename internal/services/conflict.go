package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/google/uuid"
)

type PartyKind string

const (
	PartyTherapist PartyKind = "THERAPIST"
	PartyPatient   PartyKind = "PATIENT"
)

// DefaultSlotRadius is the half-width of the time an appointment occupies.
const DefaultSlotRadius = 30 * time.Minute

// ConflictChecker decides whether a party is already booked near an instant.
// Two appointments of the same party clash when their radii overlap, so
// instants exactly two radii apart are both allowed.
type ConflictChecker struct {
	store  store.AppointmentStore
	radius time.Duration
}

func NewConflictChecker(st store.AppointmentStore, radius time.Duration) *ConflictChecker {
	if radius <= 0 {
		radius = DefaultSlotRadius
	}
	return &ConflictChecker{store: st, radius: radius}
}

// with returns a checker reading through st, typically a transaction.
func (c *ConflictChecker) with(st store.AppointmentStore) *ConflictChecker {
	return &ConflictChecker{store: st, radius: c.radius}
}

// Window returns the open interval of instants that clash with candidate.
func (c *ConflictChecker) Window(candidate time.Time) (after, before time.Time) {
	span := 2 * c.radius
	return candidate.Add(-span), candidate.Add(span)
}

func (c *ConflictChecker) filter(kind PartyKind, partyID uuid.UUID, candidate time.Time, exclude *uuid.UUID) (store.AppointmentFilter, error) {
	after, before := c.Window(candidate)
	f := store.AppointmentFilter{
		After:       &after,
		Before:      &before,
		StatusNotIn: models.NonBlockingStatuses,
		ExcludeID:   exclude,
	}
	switch kind {
	case PartyTherapist:
		f.TherapistID = &partyID
	case PartyPatient:
		f.PatientID = &partyID
	default:
		return f, fmt.Errorf("unknown party kind %q", kind)
	}
	return f, nil
}

// HasConflict reports whether the party holds a blocking appointment within
// the clash window of candidate, ignoring exclude.
func (c *ConflictChecker) HasConflict(ctx context.Context, kind PartyKind, partyID uuid.UUID, candidate time.Time, exclude *uuid.UUID) (bool, error) {
	f, err := c.filter(kind, partyID, candidate, exclude)
	if err != nil {
		return false, err
	}
	n, err := c.store.CountAppointments(ctx, f)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ensureFree checks therapist then patient and returns a Conflict error for
// the first party already booked.
func (c *ConflictChecker) ensureFree(ctx context.Context, therapistID, patientID uuid.UUID, candidate time.Time, exclude *uuid.UUID) error {
	parties := []struct {
		kind PartyKind
		id   uuid.UUID
		msg  string
	}{
		{PartyTherapist, therapistID, "therapist already has an appointment within %d minutes of %s"},
		{PartyPatient, patientID, "patient already has an appointment within %d minutes of %s"},
	}
	for _, p := range parties {
		clash, err := c.HasConflict(ctx, p.kind, p.id, candidate, exclude)
		if err != nil {
			return fromStore(err, "appointments")
		}
		if clash {
			e := conflict(p.msg, int((2 * c.radius).Minutes()), candidate.Format(time.RFC3339))
			e.Err = &PartyConflict{Party: p.kind}
			return e
		}
	}
	return nil
}

// PartyConflict identifies which side of a booking clashed.
type PartyConflict struct {
	Party PartyKind
}

func (p *PartyConflict) Error() string { return string(p.Party) + " unavailable" }
