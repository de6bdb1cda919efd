package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a patient, doctor or admin account.
type User struct {
	ID             uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Username       string         `json:"username" gorm:"uniqueIndex;size:100;not null"`
	Email          string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash   string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role           Role           `json:"role" gorm:"type:varchar(20);not null;index"`
	FirstName      string         `json:"first_name" gorm:"size:100;not null"`
	LastName       string         `json:"last_name" gorm:"size:100;not null"`
	Phone          string         `json:"phone,omitempty" gorm:"size:30"`
	Specialization string         `json:"specialization,omitempty" gorm:"size:100"`
	ApprovalStatus ApprovalStatus `json:"approval_status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == RoleAdmin {
		u.ApprovalStatus = ApprovalApproved
	}
	if u.ApprovalStatus == "" {
		u.ApprovalStatus = ApprovalPending
	}
	return nil
}

// Approved reports whether the account may use protected functionality.
// Admins are approved regardless of the stored status.
func (u *User) Approved() bool {
	return u.Role == RoleAdmin || u.ApprovalStatus == ApprovalApproved
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// MarshalJSON adds the derived is_approved flag.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		IsApproved bool `json:"is_approved"`
	}{alias: alias(u), IsApproved: u.Approved()})
}
