package services

import (
	"context"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/google/uuid"
)

// AvailabilityService finds therapists free to take a slot.
type AvailabilityService struct {
	store   store.Store
	checker *ConflictChecker
}

func NewAvailabilityService(st store.Store, checker *ConflictChecker) *AvailabilityService {
	return &AvailabilityService{store: st, checker: checker}
}

// FindAvailable returns the active therapists with no appointment inside the
// clash window of at, ordered by name. No-shows still occupy their slot here.
func (s *AvailabilityService) FindAvailable(ctx context.Context, at time.Time) ([]models.Therapist, error) {
	if at.IsZero() {
		return nil, validation("at is required")
	}

	therapists, _, err := s.store.ListTherapists(ctx, store.StaffFilter{Active: store.Bool(true)}, store.Page{})
	if err != nil {
		return nil, fromStore(err, "therapists")
	}

	after, before := s.checker.Window(at)
	busyIDs, err := s.store.AppointmentTherapistIDs(ctx, store.AppointmentFilter{
		After:       &after,
		Before:      &before,
		StatusNotIn: models.UnavailableIgnoredStatuses,
	})
	if err != nil {
		return nil, fromStore(err, "appointments")
	}

	busy := make(map[uuid.UUID]struct{}, len(busyIDs))
	for _, id := range busyIDs {
		busy[id] = struct{}{}
	}

	free := make([]models.Therapist, 0, len(therapists))
	for _, t := range therapists {
		if _, taken := busy[t.ID]; !taken {
			free = append(free, t)
		}
	}
	return free, nil
}
