package services

import (
	"context"
	"log/slog"

	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/google/uuid"
)

type ReceptionistService struct {
	store store.Store
}

func NewReceptionistService(st store.Store) *ReceptionistService {
	return &ReceptionistService{store: st}
}

func (s *ReceptionistService) List(ctx context.Context, q *dto.ListQuery) ([]models.Receptionist, int64, error) {
	active, err := parseActive(q.Active)
	if err != nil {
		return nil, 0, err
	}
	q.Normalize()
	items, total, err := s.store.ListReceptionists(ctx, store.StaffFilter{Search: q.Search, Active: active},
		store.Page{Limit: q.Limit, Offset: q.Offset()})
	if err != nil {
		return nil, 0, fromStore(err, "receptionists")
	}
	return items, total, nil
}

func (s *ReceptionistService) Get(ctx context.Context, id uuid.UUID) (*models.Receptionist, error) {
	r, err := s.store.GetReceptionist(ctx, id)
	if err != nil {
		return nil, fromStore(err, "receptionist")
	}
	return r, nil
}

func (s *ReceptionistService) Create(ctx context.Context, req *dto.CreateReceptionistRequest) (*models.Receptionist, error) {
	account := staffAccount{Name: req.Name, Email: req.Email, Password: req.Password, Phone: req.Phone, Role: models.RoleReceptionist}
	if err := account.validate(); err != nil {
		return nil, err
	}

	var id uuid.UUID
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		u, err := createAccount(ctx, tx, account)
		if err != nil {
			return err
		}
		r := &models.Receptionist{UserID: u.ID, Active: true}
		if err := tx.CreateReceptionist(ctx, r); err != nil {
			return fromStore(err, "receptionist")
		}
		id = r.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("receptionist created", "action", "receptionist.create", "receptionist_id", id.String())
	return s.Get(ctx, id)
}

func (s *ReceptionistService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateReceptionistRequest) (*models.Receptionist, error) {
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		r, err := tx.GetReceptionist(ctx, id)
		if err != nil {
			return fromStore(err, "receptionist")
		}
		if err := applyAccountChanges(ctx, tx, &r.User, req.Name, req.Email, req.Phone); err != nil {
			return err
		}
		if req.Active != nil {
			r.Active = *req.Active
		}
		return fromStore(tx.SaveReceptionist(ctx, r), "receptionist")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete deactivates the receptionist; the account is kept.
func (s *ReceptionistService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		r, err := tx.GetReceptionist(ctx, id)
		if err != nil {
			return fromStore(err, "receptionist")
		}
		r.Active = false
		if err := tx.SaveReceptionist(ctx, r); err != nil {
			return fromStore(err, "receptionist")
		}
		return fromStore(tx.RevokeUserRefreshTokens(ctx, r.UserID), "receptionist")
	})
	if err != nil {
		return err
	}
	slog.Info("receptionist deactivated", "action", "receptionist.delete", "receptionist_id", id.String())
	return nil
}

// HardDelete removes the receptionist and its account.
func (s *ReceptionistService) HardDelete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		r, err := tx.GetReceptionist(ctx, id)
		if err != nil {
			return fromStore(err, "receptionist")
		}
		if err := tx.DeleteReceptionist(ctx, id); err != nil {
			return fromStore(err, "receptionist")
		}
		return fromStore(tx.DeleteUser(ctx, r.UserID), "user")
	})
	if err != nil {
		return err
	}
	slog.Info("receptionist removed", "action", "receptionist.hard_delete", "receptionist_id", id.String())
	return nil
}
