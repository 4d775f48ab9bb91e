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

type PatientService struct {
	store store.Store
	now   func() time.Time
}

func NewPatientService(st store.Store) *PatientService {
	return &PatientService{store: st, now: time.Now}
}

func parseActive(v string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return nil, nil
	case "true":
		return store.Bool(true), nil
	case "false":
		return store.Bool(false), nil
	}
	return nil, validation("active must be true or false")
}

func (s *PatientService) List(ctx context.Context, q *dto.ListQuery) ([]models.Patient, int64, error) {
	active, err := parseActive(q.Active)
	if err != nil {
		return nil, 0, err
	}
	q.Normalize()
	items, total, err := s.store.ListPatients(ctx, store.PatientFilter{Search: q.Search, Active: active},
		store.Page{Limit: q.Limit, Offset: q.Offset()})
	if err != nil {
		return nil, 0, fromStore(err, "patients")
	}
	return items, total, nil
}

func (s *PatientService) Get(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	p, err := s.store.GetPatient(ctx, id)
	if err != nil {
		return nil, fromStore(err, "patient")
	}
	return p, nil
}

func (s *PatientService) parseBirthDate(value string) (time.Time, error) {
	d, err := ParseInstant("birth_date", value)
	if err != nil {
		return time.Time{}, err
	}
	if !d.Before(s.now()) {
		return time.Time{}, validation("birth_date must be in the past")
	}
	return d, nil
}

func (s *PatientService) Create(ctx context.Context, req *dto.CreatePatientRequest) (*models.Patient, error) {
	if err := validateName(req.Name); err != nil {
		return nil, err
	}
	if err := validateCPF(req.CPF); err != nil {
		return nil, err
	}
	if err := validatePhone(req.Phone); err != nil {
		return nil, err
	}
	birth, err := s.parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	p := &models.Patient{
		Name:          strings.TrimSpace(req.Name),
		NationalID:    req.CPF,
		Phone:         req.Phone,
		BirthDate:     birth,
		InsurancePlan: req.InsurancePlan,
		History:       req.History,
		Active:        true,
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		if err := validateEmail(*req.Email); err != nil {
			return nil, err
		}
		email := normalizeEmail(*req.Email)
		p.Email = &email
	}

	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		if _, err := tx.GetPatientByNationalID(ctx, p.NationalID); err == nil {
			return conflict("cpf already registered")
		} else if !errors.Is(err, store.ErrNotFound) {
			return fromStore(err, "patient")
		}
		if p.Email != nil {
			if _, err := tx.GetPatientByEmail(ctx, *p.Email); err == nil {
				return conflict("email already registered")
			} else if !errors.Is(err, store.ErrNotFound) {
				return fromStore(err, "patient")
			}
		}
		return fromStore(tx.CreatePatient(ctx, p), "patient")
	})
	if err != nil {
		return nil, err
	}
	slog.Info("patient created", "action", "patient.create", "patient_id", p.ID.String())
	return p, nil
}

func (s *PatientService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdatePatientRequest) (*models.Patient, error) {
	var updated *models.Patient
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		p, err := tx.GetPatient(ctx, id)
		if err != nil {
			return fromStore(err, "patient")
		}
		if req.Name != nil {
			if err := validateName(*req.Name); err != nil {
				return err
			}
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.CPF != nil && *req.CPF != p.NationalID {
			if err := validateCPF(*req.CPF); err != nil {
				return err
			}
			if _, err := tx.GetPatientByNationalID(ctx, *req.CPF); err == nil {
				return conflict("cpf already registered")
			}
			p.NationalID = *req.CPF
		}
		if req.Phone != nil {
			if err := validatePhone(*req.Phone); err != nil {
				return err
			}
			p.Phone = *req.Phone
		}
		if req.Email != nil {
			if err := validateEmail(*req.Email); err != nil {
				return err
			}
			email := normalizeEmail(*req.Email)
			if p.Email == nil || *p.Email != email {
				if _, err := tx.GetPatientByEmail(ctx, email); err == nil {
					return conflict("email already registered")
				}
			}
			p.Email = &email
		}
		if req.BirthDate != nil {
			birth, err := s.parseBirthDate(*req.BirthDate)
			if err != nil {
				return err
			}
			p.BirthDate = birth
		}
		if req.InsurancePlan != nil {
			p.InsurancePlan = *req.InsurancePlan
		}
		if req.History != nil {
			p.History = *req.History
		}
		if err := tx.SavePatient(ctx, p); err != nil {
			return fromStore(err, "patient")
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleStatus flips the active flag.
func (s *PatientService) ToggleStatus(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	var p *models.Patient
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		var err error
		if p, err = tx.GetPatient(ctx, id); err != nil {
			return fromStore(err, "patient")
		}
		p.Active = !p.Active
		return fromStore(tx.SavePatient(ctx, p), "patient")
	})
	if err != nil {
		return nil, err
	}
	slog.Info("patient status changed", "action", "patient.toggle", "patient_id", id.String(), "active", p.Active)
	return p, nil
}

// Delete removes a patient with no upcoming appointments. Past appointments
// go with it.
func (s *PatientService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		if _, err := tx.GetPatient(ctx, id); err != nil {
			return fromStore(err, "patient")
		}
		if err := ensureNoUpcoming(ctx, tx, store.AppointmentFilter{PatientID: &id}, s.now()); err != nil {
			return err
		}
		return fromStore(tx.DeletePatient(ctx, id), "patient")
	})
	if err != nil {
		return err
	}
	slog.Info("patient deleted", "action", "patient.delete", "patient_id", id.String())
	return nil
}

func ensureNoUpcoming(ctx context.Context, tx store.Store, f store.AppointmentFilter, now time.Time) error {
	f.From = &now
	f.StatusNotIn = models.NonBlockingStatuses
	n, err := tx.CountAppointments(ctx, f)
	if err != nil {
		return fromStore(err, "appointments")
	}
	if n > 0 {
		return invalidState("cannot delete while %d upcoming appointments exist", n)
	}
	return nil
}
