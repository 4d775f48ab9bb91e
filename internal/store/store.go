package store

import (
	"context"
	"errors"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate record")
	ErrNoTransaction = errors.New("operation requires a transaction")
)

// Page limits a list query. A zero Limit returns every row.
type Page struct {
	Limit  int
	Offset int
}

type Order int

const (
	OrderAsc Order = iota
	OrderDesc
)

// AppointmentFilter narrows appointment queries. From/To are inclusive
// bounds on the scheduled instant; After/Before are exclusive.
type AppointmentFilter struct {
	PatientID   *uuid.UUID
	TherapistID *uuid.UUID
	From        *time.Time
	To          *time.Time
	After       *time.Time
	Before      *time.Time
	Status      *models.AppointmentStatus
	StatusNotIn []models.AppointmentStatus
	ExcludeID   *uuid.UUID
	// Search matches patient name or CPF, therapist name, or notes.
	Search string
}

type PatientFilter struct {
	Search string
	Active *bool
}

type StaffFilter struct {
	Search string
	Active *bool
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id uuid.UUID) error
	RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type PatientStore interface {
	CreatePatient(ctx context.Context, p *models.Patient) error
	GetPatient(ctx context.Context, id uuid.UUID) (*models.Patient, error)
	GetPatientByNationalID(ctx context.Context, cpf string) (*models.Patient, error)
	GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error)
	SavePatient(ctx context.Context, p *models.Patient) error
	DeletePatient(ctx context.Context, id uuid.UUID) error
	ListPatients(ctx context.Context, f PatientFilter, p Page) ([]models.Patient, int64, error)
}

type StaffStore interface {
	CreateTherapist(ctx context.Context, t *models.Therapist) error
	GetTherapist(ctx context.Context, id uuid.UUID) (*models.Therapist, error)
	GetTherapistByUserID(ctx context.Context, userID uuid.UUID) (*models.Therapist, error)
	GetTherapistByLicense(ctx context.Context, license string) (*models.Therapist, error)
	SaveTherapist(ctx context.Context, t *models.Therapist) error
	DeleteTherapist(ctx context.Context, id uuid.UUID) error
	// ListTherapists orders by account name, then id.
	ListTherapists(ctx context.Context, f StaffFilter, p Page) ([]models.Therapist, int64, error)

	CreateReceptionist(ctx context.Context, r *models.Receptionist) error
	GetReceptionist(ctx context.Context, id uuid.UUID) (*models.Receptionist, error)
	GetReceptionistByUserID(ctx context.Context, userID uuid.UUID) (*models.Receptionist, error)
	SaveReceptionist(ctx context.Context, r *models.Receptionist) error
	DeleteReceptionist(ctx context.Context, id uuid.UUID) error
	ListReceptionists(ctx context.Context, f StaffFilter, p Page) ([]models.Receptionist, int64, error)
}

type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	// GetAppointment returns the appointment with Patient and Therapist.User populated.
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	SaveAppointment(ctx context.Context, a *models.Appointment) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	ListAppointments(ctx context.Context, f AppointmentFilter, p Page, o Order) ([]models.Appointment, int64, error)
	CountAppointments(ctx context.Context, f AppointmentFilter) (int64, error)
	// AppointmentTherapistIDs returns the distinct therapist ids matching f.
	AppointmentTherapistIDs(ctx context.Context, f AppointmentFilter) ([]uuid.UUID, error)
}

// Store is the transactional entity store the services run against.
type Store interface {
	UserStore
	PatientStore
	StaffStore
	AppointmentStore

	// WithinTx runs fn in a single transaction. Returning an error rolls back
	// every write made through tx.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	// LockKeys takes exclusive locks on keys for the rest of the current
	// transaction. Keys are locked in sorted order.
	LockKeys(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Bool returns a pointer to v, for optional filter fields.
func Bool(v bool) *bool { return &v }
