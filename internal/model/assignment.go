package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment links one doctor to one patient.
// A patient has at most one row; a doctor may appear in many.
type Assignment struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	DoctorID  uuid.UUID `json:"doctor_id" gorm:"type:char(36);not null;index;uniqueIndex:idx_assignment_pair,priority:1"`
	PatientID uuid.UUID `json:"patient_id" gorm:"type:char(36);not null;uniqueIndex:idx_assignment_patient;uniqueIndex:idx_assignment_pair,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Doctor  User `json:"-" gorm:"foreignKey:DoctorID"`
	Patient User `json:"-" gorm:"foreignKey:PatientID"`
}

// TableName keeps the table name used by existing deployments.
func (Assignment) TableName() string {
	return "doctor_patient_assignments"
}

// BeforeCreate sets UUID before creating the record.
func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AssignmentData is the admin view of who is still free to be paired.
type AssignmentData struct {
	UnassignedPatients []User `json:"unassigned_patients"`
	UnassignedDoctors  []User `json:"unassigned_doctors"`
}
