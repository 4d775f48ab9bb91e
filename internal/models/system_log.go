package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog is an ERROR-level log record persisted for later auditing of
// failed scheduling and registry operations.
type SystemLog struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Timestamp     time.Time      `gorm:"not null;index" json:"timestamp"`
	Level         string         `gorm:"size:10;not null;index" json:"level"`
	Message       string         `gorm:"type:text" json:"message"`
	RequestID     string         `gorm:"size:64;index" json:"request_id"`
	UserID        *string        `gorm:"size:36" json:"user_id"`
	Action        string         `gorm:"size:100;index" json:"action"`
	AppointmentID *string        `gorm:"size:36;index" json:"appointment_id,omitempty"`
	Error         string         `gorm:"type:text" json:"error"`
	LatencyMs     int            `json:"latency_ms"`
	Extra         datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"extra"`
	CreatedAt     time.Time      `json:"created_at"`
}
