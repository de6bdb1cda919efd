package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessAction names the kind of record access that was attempted.
type AccessAction string

const (
	AccessUpload       AccessAction = "upload"
	AccessReadOwn      AccessAction = "read_own"
	AccessReadAssigned AccessAction = "read_assigned"
	AccessAdminRead    AccessAction = "admin_read"
	AccessAdminList    AccessAction = "admin_list"
)

// AccessOutcome is the guard's verdict.
type AccessOutcome string

const (
	AccessGranted AccessOutcome = "granted"
	AccessDenied  AccessOutcome = "denied"
)

// AccessLog is an audit entry for a record access decision.
// Every decision is logged regardless of outcome. Entries never hold record content.
type AccessLog struct {
	ID        uuid.UUID     `json:"id" gorm:"type:char(36);primaryKey"`
	ActorID   uuid.UUID     `json:"actor_id" gorm:"type:char(36);not null;index"`
	ActorRole Role          `json:"actor_role" gorm:"type:varchar(20);not null"`
	PatientID *uuid.UUID    `json:"patient_id,omitempty" gorm:"type:char(36);index"`
	RecordID  *uuid.UUID    `json:"record_id,omitempty" gorm:"type:char(36)"`
	Action    AccessAction  `json:"action" gorm:"type:varchar(20);not null;index"`
	Outcome   AccessOutcome `json:"outcome" gorm:"type:varchar(20);not null;index"`
	Reason    string        `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt time.Time     `json:"created_at" gorm:"index"`
}

// TableName keeps audit rows apart from business tables.
func (AccessLog) TableName() string {
	return "record_access_logs"
}

// BeforeCreate sets UUID before creating the record.
func (l *AccessLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
