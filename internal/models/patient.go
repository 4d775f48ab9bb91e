package models

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string    `gorm:"not null;size:100;index" json:"name"`
	NationalID    string    `gorm:"column:cpf;not null;size:11;uniqueIndex" json:"cpf"`
	Phone         string    `gorm:"size:11" json:"phone"`
	Email         *string   `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	BirthDate     time.Time `gorm:"type:date;not null" json:"birth_date"`
	InsurancePlan string    `gorm:"size:100" json:"insurance_plan,omitempty"`
	History       string    `gorm:"type:text" json:"history,omitempty"`
	Active        bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
