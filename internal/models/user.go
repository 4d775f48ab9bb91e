package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleTherapist    Role = "FISIOTERAPEUTA"
	RoleReceptionist Role = "RECEPCIONISTA"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTherapist, RoleReceptionist:
		return true
	}
	return false
}

// User is the shared staff account. Therapists and receptionists extend it
// through a 1:1 profile row that owns the association.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	Email     string    `gorm:"not null;size:100;uniqueIndex" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Phone     string    `gorm:"size:11" json:"phone"`
	Role      Role      `gorm:"size:20;not null;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StaffProfile is the role-specific extension of a User. Only *Therapist and
// *Receptionist implement it.
type StaffProfile interface {
	Account() *User
	StaffRole() Role
	IsActive() bool
	staffProfile()
}
