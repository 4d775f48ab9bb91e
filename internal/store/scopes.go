package store

import (
	"strings"

	"gorm.io/gorm"
)

type scope = func(db *gorm.DB) *gorm.DB

func likePattern(s string) string {
	return "%" + strings.TrimSpace(s) + "%"
}

// forAppointments applies an AppointmentFilter to a query on appointments.
func forAppointments(f AppointmentFilter) scope {
	return func(db *gorm.DB) *gorm.DB {
		if f.PatientID != nil {
			db = db.Where("appointments.patient_id = ?", *f.PatientID)
		}
		if f.TherapistID != nil {
			db = db.Where("appointments.therapist_id = ?", *f.TherapistID)
		}
		if f.From != nil {
			db = db.Where("appointments.scheduled_at >= ?", *f.From)
		}
		if f.To != nil {
			db = db.Where("appointments.scheduled_at <= ?", *f.To)
		}
		if f.After != nil {
			db = db.Where("appointments.scheduled_at > ?", *f.After)
		}
		if f.Before != nil {
			db = db.Where("appointments.scheduled_at < ?", *f.Before)
		}
		if f.Status != nil {
			db = db.Where("appointments.status = ?", *f.Status)
		}
		if len(f.StatusNotIn) > 0 {
			db = db.Where("appointments.status NOT IN ?", f.StatusNotIn)
		}
		if f.ExcludeID != nil {
			db = db.Where("appointments.id <> ?", *f.ExcludeID)
		}
		if strings.TrimSpace(f.Search) != "" {
			p := likePattern(f.Search)
			db = db.Where(
				`appointments.patient_id IN (SELECT id FROM patients WHERE name ILIKE ? OR cpf ILIKE ?)
				 OR appointments.therapist_id IN (SELECT t.id FROM therapists t JOIN users u ON u.id = t.user_id WHERE u.name ILIKE ?)
				 OR appointments.notes ILIKE ?`,
				p, p, p, p,
			)
		}
		return db
	}
}

func forPatients(f PatientFilter) scope {
	return func(db *gorm.DB) *gorm.DB {
		if f.Active != nil {
			db = db.Where("patients.active = ?", *f.Active)
		}
		if strings.TrimSpace(f.Search) != "" {
			p := likePattern(f.Search)
			db = db.Where("patients.name ILIKE ? OR patients.email ILIKE ? OR patients.cpf ILIKE ?", p, p, p)
		}
		return db
	}
}

func forTherapists(f StaffFilter) scope {
	return func(db *gorm.DB) *gorm.DB {
		if f.Active != nil {
			db = db.Where("therapists.active = ?", *f.Active)
		}
		if strings.TrimSpace(f.Search) != "" {
			p := likePattern(f.Search)
			db = db.Where(
				`therapists.crefito ILIKE ? OR therapists.specialty ILIKE ?
				 OR therapists.user_id IN (SELECT id FROM users WHERE name ILIKE ? OR email ILIKE ?)`,
				p, p, p, p,
			)
		}
		return db
	}
}

func forReceptionists(f StaffFilter) scope {
	return func(db *gorm.DB) *gorm.DB {
		if f.Active != nil {
			db = db.Where("receptionists.active = ?", *f.Active)
		}
		if strings.TrimSpace(f.Search) != "" {
			p := likePattern(f.Search)
			db = db.Where("receptionists.user_id IN (SELECT id FROM users WHERE name ILIKE ?)", p)
		}
		return db
	}
}

func paginate(p Page) scope {
	return func(db *gorm.DB) *gorm.DB {
		if p.Limit > 0 {
			db = db.Limit(p.Limit)
		}
		if p.Offset > 0 {
			db = db.Offset(p.Offset)
		}
		return db
	}
}
