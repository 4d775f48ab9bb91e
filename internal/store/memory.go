package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/google/uuid"
)

type memData struct {
	users         map[uuid.UUID]models.User
	tokens        map[uuid.UUID]models.RefreshToken
	patients      map[uuid.UUID]models.Patient
	therapists    map[uuid.UUID]models.Therapist
	receptionists map[uuid.UUID]models.Receptionist
	appointments  map[uuid.UUID]models.Appointment
}

func newMemData() *memData {
	return &memData{
		users:         map[uuid.UUID]models.User{},
		tokens:        map[uuid.UUID]models.RefreshToken{},
		patients:      map[uuid.UUID]models.Patient{},
		therapists:    map[uuid.UUID]models.Therapist{},
		receptionists: map[uuid.UUID]models.Receptionist{},
		appointments:  map[uuid.UUID]models.Appointment{},
	}
}

func cloneMap[K comparable, V any](m map[K]V, copyFn func(V) V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = copyFn(v)
	}
	return out
}

func same[V any](v V) V { return v }

func (d *memData) clone() *memData {
	return &memData{
		users:         cloneMap(d.users, same[models.User]),
		tokens:        cloneMap(d.tokens, same[models.RefreshToken]),
		patients:      cloneMap(d.patients, copyPatient),
		therapists:    cloneMap(d.therapists, same[models.Therapist]),
		receptionists: cloneMap(d.receptionists, same[models.Receptionist]),
		appointments:  cloneMap(d.appointments, copyAppointment),
	}
}

func copyPatient(p models.Patient) models.Patient {
	if p.Email != nil {
		email := *p.Email
		p.Email = &email
	}
	return p
}

func copyAppointment(a models.Appointment) models.Appointment {
	if a.DurationMinutes != nil {
		d := *a.DurationMinutes
		a.DurationMinutes = &d
	}
	a.Patient = nil
	a.Therapist = nil
	return a
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps every entity in process memory. Transactions take the
// store-wide lock for their whole duration and work on a snapshot that is
// swapped in only on success.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:   &sync.Mutex{},
		data: newMemData(),
		now:  time.Now,
	}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &MemoryStore{mu: s.mu, data: s.data.clone(), inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// LockKeys is satisfied by the transaction holding the store lock.
func (s *MemoryStore) LockKeys(ctx context.Context, keys ...string) error {
	if !s.inTx {
		return ErrNoTransaction
	}
	return ctx.Err()
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) stamp(id *uuid.UUID, createdAt, updatedAt *time.Time) {
	now := s.now().UTC()
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

func equalFold(a, b string) bool { return strings.EqualFold(a, b) }

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func duplicate(field string) error {
	return fmt.Errorf("%w: %s", ErrDuplicate, field)
}

func pageOf[T any](items []T, p Page) []T {
	if p.Offset > 0 {
		if p.Offset >= len(items) {
			return []T{}
		}
		items = items[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// --- users ---

func (s *MemoryStore) checkUser(u *models.User) error {
	for id, existing := range s.data.users {
		if id != u.ID && equalFold(existing.Email, u.Email) {
			return duplicate("users.email")
		}
	}
	return nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	defer s.lock()()
	if _, ok := s.data.users[u.ID]; ok && u.ID != uuid.Nil {
		return duplicate("users.id")
	}
	if err := s.checkUser(u); err != nil {
		return err
	}
	s.stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	s.data.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer s.lock()()
	u, ok := s.data.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.lock()()
	for _, u := range s.data.users {
		if equalFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SaveUser(ctx context.Context, u *models.User) error {
	defer s.lock()()
	if _, ok := s.data.users[u.ID]; !ok {
		return ErrNotFound
	}
	if err := s.checkUser(u); err != nil {
		return err
	}
	s.stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	s.data.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.users, id)
	for tid, t := range s.data.tokens {
		if t.UserID == id {
			delete(s.data.tokens, tid)
		}
	}
	for tid, t := range s.data.therapists {
		if t.UserID == id {
			s.deleteTherapist(tid)
		}
	}
	for rid, r := range s.data.receptionists {
		if r.UserID == id {
			delete(s.data.receptionists, rid)
		}
	}
	return nil
}

func (s *MemoryStore) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	defer s.lock()()
	for _, existing := range s.data.tokens {
		if existing.TokenHash == t.TokenHash {
			return duplicate("refresh_tokens.token_hash")
		}
	}
	var updated time.Time
	s.stamp(&t.ID, &t.CreatedAt, &updated)
	stored := *t
	stored.User = models.User{}
	s.data.tokens[t.ID] = stored
	return nil
}

func (s *MemoryStore) GetRefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	defer s.lock()()
	for _, t := range s.data.tokens {
		if t.TokenHash == hash && !t.Revoked {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) RevokeRefreshToken(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if t, ok := s.data.tokens[id]; ok {
		t.Revoked = true
		s.data.tokens[id] = t
	}
	return nil
}

func (s *MemoryStore) RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	defer s.lock()()
	for id, t := range s.data.tokens {
		if t.UserID == userID {
			t.Revoked = true
			s.data.tokens[id] = t
		}
	}
	return nil
}

// --- patients ---

func (s *MemoryStore) checkPatient(p *models.Patient) error {
	for id, existing := range s.data.patients {
		if id == p.ID {
			continue
		}
		if existing.NationalID == p.NationalID {
			return duplicate("patients.cpf")
		}
		if p.Email != nil && existing.Email != nil && equalFold(*existing.Email, *p.Email) {
			return duplicate("patients.email")
		}
	}
	return nil
}

func (s *MemoryStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	defer s.lock()()
	if err := s.checkPatient(p); err != nil {
		return err
	}
	s.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	s.data.patients[p.ID] = copyPatient(*p)
	return nil
}

func (s *MemoryStore) getPatient(id uuid.UUID) (*models.Patient, bool) {
	p, ok := s.data.patients[id]
	if !ok {
		return nil, false
	}
	p = copyPatient(p)
	return &p, true
}

func (s *MemoryStore) GetPatient(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	defer s.lock()()
	p, ok := s.getPatient(id)
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) GetPatientByNationalID(ctx context.Context, cpf string) (*models.Patient, error) {
	defer s.lock()()
	for id, p := range s.data.patients {
		if p.NationalID == cpf {
			found, _ := s.getPatient(id)
			return found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	defer s.lock()()
	for id, p := range s.data.patients {
		if p.Email != nil && equalFold(*p.Email, email) {
			found, _ := s.getPatient(id)
			return found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SavePatient(ctx context.Context, p *models.Patient) error {
	defer s.lock()()
	if _, ok := s.data.patients[p.ID]; !ok {
		return ErrNotFound
	}
	if err := s.checkPatient(p); err != nil {
		return err
	}
	s.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	s.data.patients[p.ID] = copyPatient(*p)
	return nil
}

func (s *MemoryStore) DeletePatient(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.patients[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.patients, id)
	for aid, a := range s.data.appointments {
		if a.PatientID == id {
			delete(s.data.appointments, aid)
		}
	}
	return nil
}

func (s *MemoryStore) ListPatients(ctx context.Context, f PatientFilter, p Page) ([]models.Patient, int64, error) {
	defer s.lock()()
	var out []models.Patient
	for _, pt := range s.data.patients {
		if f.Active != nil && pt.Active != *f.Active {
			continue
		}
		if strings.TrimSpace(f.Search) != "" {
			email := ""
			if pt.Email != nil {
				email = *pt.Email
			}
			if !contains(pt.Name, f.Search) && !contains(email, f.Search) && !contains(pt.NationalID, f.Search) {
				continue
			}
		}
		out = append(out, copyPatient(pt))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return pageOf(out, p), int64(len(out)), nil
}

// --- staff ---

func (s *MemoryStore) checkTherapist(t *models.Therapist) error {
	for id, existing := range s.data.therapists {
		if id == t.ID {
			continue
		}
		if existing.UserID == t.UserID {
			return duplicate("therapists.user_id")
		}
		if existing.License == t.License {
			return duplicate("therapists.crefito")
		}
	}
	return nil
}

func (s *MemoryStore) CreateTherapist(ctx context.Context, t *models.Therapist) error {
	defer s.lock()()
	if err := s.checkTherapist(t); err != nil {
		return err
	}
	s.stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	stored := *t
	stored.User = models.User{}
	s.data.therapists[t.ID] = stored
	return nil
}

func (s *MemoryStore) withUser(t models.Therapist) *models.Therapist {
	t.User = s.data.users[t.UserID]
	return &t
}

func (s *MemoryStore) GetTherapist(ctx context.Context, id uuid.UUID) (*models.Therapist, error) {
	defer s.lock()()
	t, ok := s.data.therapists[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.withUser(t), nil
}

func (s *MemoryStore) GetTherapistByUserID(ctx context.Context, userID uuid.UUID) (*models.Therapist, error) {
	defer s.lock()()
	for _, t := range s.data.therapists {
		if t.UserID == userID {
			return s.withUser(t), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetTherapistByLicense(ctx context.Context, license string) (*models.Therapist, error) {
	defer s.lock()()
	for _, t := range s.data.therapists {
		if t.License == license {
			return s.withUser(t), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SaveTherapist(ctx context.Context, t *models.Therapist) error {
	defer s.lock()()
	if _, ok := s.data.therapists[t.ID]; !ok {
		return ErrNotFound
	}
	if err := s.checkTherapist(t); err != nil {
		return err
	}
	s.stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	stored := *t
	stored.User = models.User{}
	s.data.therapists[t.ID] = stored
	return nil
}

func (s *MemoryStore) deleteTherapist(id uuid.UUID) {
	delete(s.data.therapists, id)
	for aid, a := range s.data.appointments {
		if a.TherapistID == id {
			delete(s.data.appointments, aid)
		}
	}
}

func (s *MemoryStore) DeleteTherapist(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.therapists[id]; !ok {
		return ErrNotFound
	}
	s.deleteTherapist(id)
	return nil
}

func (s *MemoryStore) ListTherapists(ctx context.Context, f StaffFilter, p Page) ([]models.Therapist, int64, error) {
	defer s.lock()()
	var out []models.Therapist
	for _, t := range s.data.therapists {
		if f.Active != nil && t.Active != *f.Active {
			continue
		}
		full := s.withUser(t)
		if strings.TrimSpace(f.Search) != "" &&
			!contains(full.License, f.Search) &&
			!contains(full.Specialty, f.Search) &&
			!contains(full.User.Name, f.Search) &&
			!contains(full.User.Email, f.Search) {
			continue
		}
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].User.Name != out[j].User.Name {
			return out[i].User.Name < out[j].User.Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return pageOf(out, p), int64(len(out)), nil
}

func (s *MemoryStore) CreateReceptionist(ctx context.Context, r *models.Receptionist) error {
	defer s.lock()()
	for _, existing := range s.data.receptionists {
		if existing.UserID == r.UserID {
			return duplicate("receptionists.user_id")
		}
	}
	s.stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	stored := *r
	stored.User = models.User{}
	s.data.receptionists[r.ID] = stored
	return nil
}

func (s *MemoryStore) receptionistWithUser(r models.Receptionist) *models.Receptionist {
	r.User = s.data.users[r.UserID]
	return &r
}

func (s *MemoryStore) GetReceptionist(ctx context.Context, id uuid.UUID) (*models.Receptionist, error) {
	defer s.lock()()
	r, ok := s.data.receptionists[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.receptionistWithUser(r), nil
}

func (s *MemoryStore) GetReceptionistByUserID(ctx context.Context, userID uuid.UUID) (*models.Receptionist, error) {
	defer s.lock()()
	for _, r := range s.data.receptionists {
		if r.UserID == userID {
			return s.receptionistWithUser(r), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SaveReceptionist(ctx context.Context, r *models.Receptionist) error {
	defer s.lock()()
	if _, ok := s.data.receptionists[r.ID]; !ok {
		return ErrNotFound
	}
	s.stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	stored := *r
	stored.User = models.User{}
	s.data.receptionists[r.ID] = stored
	return nil
}

func (s *MemoryStore) DeleteReceptionist(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.receptionists[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.receptionists, id)
	return nil
}

func (s *MemoryStore) ListReceptionists(ctx context.Context, f StaffFilter, p Page) ([]models.Receptionist, int64, error) {
	defer s.lock()()
	var out []models.Receptionist
	for _, r := range s.data.receptionists {
		if f.Active != nil && r.Active != *f.Active {
			continue
		}
		full := s.receptionistWithUser(r)
		if strings.TrimSpace(f.Search) != "" && !contains(full.User.Name, f.Search) {
			continue
		}
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].User.Name != out[j].User.Name {
			return out[i].User.Name < out[j].User.Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return pageOf(out, p), int64(len(out)), nil
}

// --- appointments ---

func (s *MemoryStore) withParties(a models.Appointment) models.Appointment {
	a = copyAppointment(a)
	if p, ok := s.getPatient(a.PatientID); ok {
		a.Patient = p
	}
	if t, ok := s.data.therapists[a.TherapistID]; ok {
		a.Therapist = s.withUser(t)
	}
	return a
}

func (s *MemoryStore) matches(a models.Appointment, f AppointmentFilter) bool {
	if f.PatientID != nil && a.PatientID != *f.PatientID {
		return false
	}
	if f.TherapistID != nil && a.TherapistID != *f.TherapistID {
		return false
	}
	if f.From != nil && a.ScheduledAt.Before(*f.From) {
		return false
	}
	if f.To != nil && a.ScheduledAt.After(*f.To) {
		return false
	}
	if f.After != nil && !a.ScheduledAt.After(*f.After) {
		return false
	}
	if f.Before != nil && !a.ScheduledAt.Before(*f.Before) {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if len(f.StatusNotIn) > 0 && models.StatusIn(a.Status, f.StatusNotIn) {
		return false
	}
	if f.ExcludeID != nil && a.ID == *f.ExcludeID {
		return false
	}
	if strings.TrimSpace(f.Search) != "" {
		full := s.withParties(a)
		hit := contains(full.Notes, f.Search)
		if full.Patient != nil {
			hit = hit || contains(full.Patient.Name, f.Search) || contains(full.Patient.NationalID, f.Search)
		}
		if full.Therapist != nil {
			hit = hit || contains(full.Therapist.User.Name, f.Search)
		}
		if !hit {
			return false
		}
	}
	return true
}

func (s *MemoryStore) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	defer s.lock()()
	if a.Status == "" {
		a.Status = models.StatusScheduled
	}
	s.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	s.data.appointments[a.ID] = copyAppointment(*a)
	return nil
}

func (s *MemoryStore) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	defer s.lock()()
	a, ok := s.data.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	full := s.withParties(a)
	return &full, nil
}

func (s *MemoryStore) SaveAppointment(ctx context.Context, a *models.Appointment) error {
	defer s.lock()()
	if _, ok := s.data.appointments[a.ID]; !ok {
		return ErrNotFound
	}
	s.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	s.data.appointments[a.ID] = copyAppointment(*a)
	return nil
}

func (s *MemoryStore) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.appointments, id)
	return nil
}

func (s *MemoryStore) filterAppointments(f AppointmentFilter) []models.Appointment {
	var out []models.Appointment
	for _, a := range s.data.appointments {
		if s.matches(a, f) {
			out = append(out, a)
		}
	}
	return out
}

func (s *MemoryStore) ListAppointments(ctx context.Context, f AppointmentFilter, p Page, o Order) ([]models.Appointment, int64, error) {
	defer s.lock()()
	matched := s.filterAppointments(f)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.ScheduledAt.Equal(b.ScheduledAt) {
			if o == OrderDesc {
				return a.ScheduledAt.After(b.ScheduledAt)
			}
			return a.ScheduledAt.Before(b.ScheduledAt)
		}
		return a.ID.String() < b.ID.String()
	})

	page := pageOf(matched, p)
	out := make([]models.Appointment, 0, len(page))
	for _, a := range page {
		out = append(out, s.withParties(a))
	}
	return out, int64(len(matched)), nil
}

func (s *MemoryStore) CountAppointments(ctx context.Context, f AppointmentFilter) (int64, error) {
	defer s.lock()()
	return int64(len(s.filterAppointments(f))), nil
}

func (s *MemoryStore) AppointmentTherapistIDs(ctx context.Context, f AppointmentFilter) ([]uuid.UUID, error) {
	defer s.lock()()
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, a := range s.filterAppointments(f) {
		if !seen[a.TherapistID] {
			seen[a.TherapistID] = true
			ids = append(ids, a.TherapistID)
		}
	}
	return ids, nil
}
