package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/google/uuid"
)

type TherapistService struct {
	store store.Store
	now   func() time.Time
}

func NewTherapistService(st store.Store) *TherapistService {
	return &TherapistService{store: st, now: time.Now}
}

func (s *TherapistService) List(ctx context.Context, q *dto.ListQuery) ([]models.Therapist, int64, error) {
	active, err := parseActive(q.Active)
	if err != nil {
		return nil, 0, err
	}
	q.Normalize()
	items, total, err := s.store.ListTherapists(ctx, store.StaffFilter{Search: q.Search, Active: active},
		store.Page{Limit: q.Limit, Offset: q.Offset()})
	if err != nil {
		return nil, 0, fromStore(err, "therapists")
	}
	return items, total, nil
}

func (s *TherapistService) Get(ctx context.Context, id uuid.UUID) (*models.Therapist, error) {
	t, err := s.store.GetTherapist(ctx, id)
	if err != nil {
		return nil, fromStore(err, "therapist")
	}
	return t, nil
}

func ensureLicenseFree(ctx context.Context, tx store.Store, license string) error {
	_, err := tx.GetTherapistByLicense(ctx, license)
	switch {
	case err == nil:
		return conflict("crefito already registered")
	case errors.Is(err, store.ErrNotFound):
		return nil
	}
	return fromStore(err, "therapist")
}

// Create registers the account and its therapist profile together.
func (s *TherapistService) Create(ctx context.Context, req *dto.CreateTherapistRequest) (*models.Therapist, error) {
	account := staffAccount{Name: req.Name, Email: req.Email, Password: req.Password, Phone: req.Phone, Role: models.RoleTherapist}
	if err := account.validate(); err != nil {
		return nil, err
	}
	if err := required("crefito", req.CREFITO); err != nil {
		return nil, err
	}
	if err := required("specialty", req.Specialty); err != nil {
		return nil, err
	}

	var id uuid.UUID
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		license := strings.TrimSpace(req.CREFITO)
		if err := ensureLicenseFree(ctx, tx, license); err != nil {
			return err
		}
		u, err := createAccount(ctx, tx, account)
		if err != nil {
			return err
		}
		t := &models.Therapist{
			UserID:    u.ID,
			License:   license,
			Specialty: strings.TrimSpace(req.Specialty),
			Active:    true,
		}
		if err := tx.CreateTherapist(ctx, t); err != nil {
			return fromStore(err, "therapist")
		}
		id = t.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("therapist created", "action", "therapist.create", "therapist_id", id.String())
	return s.Get(ctx, id)
}

func (s *TherapistService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateTherapistRequest) (*models.Therapist, error) {
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		t, err := tx.GetTherapist(ctx, id)
		if err != nil {
			return fromStore(err, "therapist")
		}
		if err := applyAccountChanges(ctx, tx, &t.User, req.Name, req.Email, req.Phone); err != nil {
			return err
		}
		if req.CREFITO != nil {
			license := strings.TrimSpace(*req.CREFITO)
			if err := required("crefito", license); err != nil {
				return err
			}
			if license != t.License {
				if err := ensureLicenseFree(ctx, tx, license); err != nil {
					return err
				}
				t.License = license
			}
		}
		if req.Specialty != nil {
			if err := required("specialty", *req.Specialty); err != nil {
				return err
			}
			t.Specialty = strings.TrimSpace(*req.Specialty)
		}
		return fromStore(tx.SaveTherapist(ctx, t), "therapist")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ToggleStatus flips the active flag. Inactive therapists cannot be booked
// or log in.
func (s *TherapistService) ToggleStatus(ctx context.Context, id uuid.UUID) (*models.Therapist, error) {
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		t, err := tx.GetTherapist(ctx, id)
		if err != nil {
			return fromStore(err, "therapist")
		}
		t.Active = !t.Active
		return fromStore(tx.SaveTherapist(ctx, t), "therapist")
	})
	if err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	slog.Info("therapist status changed", "action", "therapist.toggle", "therapist_id", id.String(), "active", t.Active)
	return t, nil
}

// Delete removes the therapist together with its account and sessions.
// Refused while upcoming appointments exist.
func (s *TherapistService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		t, err := tx.GetTherapist(ctx, id)
		if err != nil {
			return fromStore(err, "therapist")
		}
		if err := ensureNoUpcoming(ctx, tx, store.AppointmentFilter{TherapistID: &id}, s.now()); err != nil {
			return err
		}
		if err := tx.DeleteTherapist(ctx, id); err != nil {
			return fromStore(err, "therapist")
		}
		return fromStore(tx.DeleteUser(ctx, t.UserID), "user")
	})
	if err != nil {
		return err
	}
	slog.Info("therapist deleted", "action", "therapist.delete", "therapist_id", id.String())
	return nil
}
