package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

var _ Store = (*GormStore)(nil)

// GormStore is the PostgreSQL-backed Store.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

// LockKeys takes transaction-scoped advisory locks, released on commit or rollback.
func (s *GormStore) LockKeys(ctx context.Context, keys ...string) error {
	if !s.inTx {
		return ErrNoTransaction
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, key := range sorted {
		if err := s.conn(ctx).Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error; err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (s *GormStore) create(ctx context.Context, v interface{}) error {
	return translateError(s.conn(ctx).Omit(clause.Associations).Create(v).Error)
}

func (s *GormStore) save(ctx context.Context, v interface{}) error {
	return translateError(s.conn(ctx).Omit(clause.Associations).Save(v).Error)
}

func (s *GormStore) deleteByID(ctx context.Context, model interface{}, id uuid.UUID) error {
	result := s.conn(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- users ---

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return s.create(ctx, u)
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (s *GormStore) SaveUser(ctx context.Context, u *models.User) error {
	return s.save(ctx, u)
}

func (s *GormStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, &models.User{}, id)
}

func (s *GormStore) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return s.create(ctx, t)
}

func (s *GormStore) GetRefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := s.conn(ctx).Where("token_hash = ? AND revoked = false", hash).First(&t).Error; err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (s *GormStore) RevokeRefreshToken(ctx context.Context, id uuid.UUID) error {
	return translateError(s.conn(ctx).Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Update("revoked", true).Error)
}

func (s *GormStore) RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	return translateError(s.conn(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = false", userID).
		Update("revoked", true).Error)
}

// --- patients ---

func (s *GormStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	return s.create(ctx, p)
}

func (s *GormStore) GetPatient(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	var p models.Patient
	if err := s.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (s *GormStore) GetPatientByNationalID(ctx context.Context, cpf string) (*models.Patient, error) {
	var p models.Patient
	if err := s.conn(ctx).Where("cpf = ?", cpf).First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (s *GormStore) GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	var p models.Patient
	if err := s.conn(ctx).Where("LOWER(email) = LOWER(?)", email).First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (s *GormStore) SavePatient(ctx context.Context, p *models.Patient) error {
	return s.save(ctx, p)
}

func (s *GormStore) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, &models.Patient{}, id)
}

func (s *GormStore) ListPatients(ctx context.Context, f PatientFilter, p Page) ([]models.Patient, int64, error) {
	var total int64
	query := s.conn(ctx).Model(&models.Patient{}).Scopes(forPatients(f))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var patients []models.Patient
	if err := query.Scopes(paginate(p)).Order("patients.name ASC").Order("patients.id").Find(&patients).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return patients, total, nil
}

// --- staff ---

func (s *GormStore) CreateTherapist(ctx context.Context, t *models.Therapist) error {
	return s.create(ctx, t)
}

func (s *GormStore) getTherapist(ctx context.Context, query interface{}, args ...interface{}) (*models.Therapist, error) {
	var t models.Therapist
	if err := s.conn(ctx).Joins("User").Where(query, args...).First(&t).Error; err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (s *GormStore) GetTherapist(ctx context.Context, id uuid.UUID) (*models.Therapist, error) {
	return s.getTherapist(ctx, "therapists.id = ?", id)
}

func (s *GormStore) GetTherapistByUserID(ctx context.Context, userID uuid.UUID) (*models.Therapist, error) {
	return s.getTherapist(ctx, "therapists.user_id = ?", userID)
}

func (s *GormStore) GetTherapistByLicense(ctx context.Context, license string) (*models.Therapist, error) {
	return s.getTherapist(ctx, "therapists.crefito = ?", license)
}

func (s *GormStore) SaveTherapist(ctx context.Context, t *models.Therapist) error {
	return s.save(ctx, t)
}

func (s *GormStore) DeleteTherapist(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, &models.Therapist{}, id)
}

func (s *GormStore) ListTherapists(ctx context.Context, f StaffFilter, p Page) ([]models.Therapist, int64, error) {
	var total int64
	query := s.conn(ctx).Model(&models.Therapist{}).Scopes(forTherapists(f))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var therapists []models.Therapist
	err := query.Joins("User").
		Scopes(paginate(p)).
		Order(`"User"."name" ASC`).
		Order("therapists.id").
		Find(&therapists).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return therapists, total, nil
}

func (s *GormStore) CreateReceptionist(ctx context.Context, r *models.Receptionist) error {
	return s.create(ctx, r)
}

func (s *GormStore) getReceptionist(ctx context.Context, query interface{}, args ...interface{}) (*models.Receptionist, error) {
	var r models.Receptionist
	if err := s.conn(ctx).Joins("User").Where(query, args...).First(&r).Error; err != nil {
		return nil, translateError(err)
	}
	return &r, nil
}

func (s *GormStore) GetReceptionist(ctx context.Context, id uuid.UUID) (*models.Receptionist, error) {
	return s.getReceptionist(ctx, "receptionists.id = ?", id)
}

func (s *GormStore) GetReceptionistByUserID(ctx context.Context, userID uuid.UUID) (*models.Receptionist, error) {
	return s.getReceptionist(ctx, "receptionists.user_id = ?", userID)
}

func (s *GormStore) SaveReceptionist(ctx context.Context, r *models.Receptionist) error {
	return s.save(ctx, r)
}

func (s *GormStore) DeleteReceptionist(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, &models.Receptionist{}, id)
}

func (s *GormStore) ListReceptionists(ctx context.Context, f StaffFilter, p Page) ([]models.Receptionist, int64, error) {
	var total int64
	query := s.conn(ctx).Model(&models.Receptionist{}).Scopes(forReceptionists(f))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var receptionists []models.Receptionist
	err := query.Joins("User").
		Scopes(paginate(p)).
		Order(`"User"."name" ASC`).
		Order("receptionists.id").
		Find(&receptionists).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return receptionists, total, nil
}

// --- appointments ---

func (s *GormStore) withParties(ctx context.Context) *gorm.DB {
	return s.conn(ctx).Preload("Patient").Preload("Therapist.User")
}

func (s *GormStore) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	return s.create(ctx, a)
}

func (s *GormStore) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.withParties(ctx).First(&a, "appointments.id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (s *GormStore) SaveAppointment(ctx context.Context, a *models.Appointment) error {
	return s.save(ctx, a)
}

func (s *GormStore) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, &models.Appointment{}, id)
}

func (s *GormStore) ListAppointments(ctx context.Context, f AppointmentFilter, p Page, o Order) ([]models.Appointment, int64, error) {
	var total int64
	if err := s.conn(ctx).Model(&models.Appointment{}).Scopes(forAppointments(f)).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	direction := "ASC"
	if o == OrderDesc {
		direction = "DESC"
	}

	var appointments []models.Appointment
	err := s.withParties(ctx).
		Scopes(forAppointments(f), paginate(p)).
		Order("appointments.scheduled_at " + direction).
		Order("appointments.id").
		Find(&appointments).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return appointments, total, nil
}

func (s *GormStore) CountAppointments(ctx context.Context, f AppointmentFilter) (int64, error) {
	var total int64
	if err := s.conn(ctx).Model(&models.Appointment{}).Scopes(forAppointments(f)).Count(&total).Error; err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

func (s *GormStore) AppointmentTherapistIDs(ctx context.Context, f AppointmentFilter) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.conn(ctx).Model(&models.Appointment{}).
		Scopes(forAppointments(f)).
		Distinct("appointments.therapist_id").
		Pluck("appointments.therapist_id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}
