package models

import (
	"time"

	"github.com/google/uuid"
)

type Therapist struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	License   string    `gorm:"column:crefito;not null;size:30;uniqueIndex" json:"crefito"`
	Specialty string    `gorm:"not null;size:100" json:"specialty"`
	Active    bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}

func (t *Therapist) Account() *User  { return &t.User }
func (t *Therapist) StaffRole() Role { return RoleTherapist }
func (t *Therapist) IsActive() bool  { return t.Active }
func (t *Therapist) staffProfile()   {}

type Receptionist struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Active    bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}

func (r *Receptionist) Account() *User  { return &r.User }
func (r *Receptionist) StaffRole() Role { return RoleReceptionist }
func (r *Receptionist) IsActive() bool  { return r.Active }
func (r *Receptionist) staffProfile()   {}
