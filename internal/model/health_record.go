package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRecordFileName is used when an upload does not name its file.
const DefaultRecordFileName = "health_record"

// HealthRecord is an encrypted document owned by a patient. Records are
// immutable once stored.
type HealthRecord struct {
	ID            uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	PatientID     uuid.UUID `json:"patient_id" gorm:"type:char(36);not null;index"`
	EncryptedData string    `json:"encrypted_data" gorm:"type:text;not null"`
	DataType      string    `json:"data_type" gorm:"size:50;not null;index"`
	FileName      string    `json:"file_name" gorm:"size:255;not null;default:'health_record'"`
	FileSize      int64     `json:"file_size" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`

	// Relations
	Patient User `json:"-" gorm:"foreignKey:PatientID"`
}

// BeforeCreate sets UUID before creating the record.
func (r *HealthRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.FileName == "" {
		r.FileName = DefaultRecordFileName
	}
	return nil
}

// RecordMetadata describes a record without its payload.
type RecordMetadata struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	DataType  string    `json:"data_type"`
	FileName  string    `json:"file_name"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}

// Metadata strips the ciphertext.
func (r *HealthRecord) Metadata() RecordMetadata {
	return RecordMetadata{
		ID:        r.ID,
		PatientID: r.PatientID,
		DataType:  r.DataType,
		FileName:  r.FileName,
		FileSize:  r.FileSize,
		CreatedAt: r.CreatedAt,
	}
}

// DecryptedRecord is a record with its document opened for an authorized reader.
type DecryptedRecord struct {
	RecordMetadata
	Data map[string]any `json:"data"`
}

// AdminRecord is what an admin sees: metadata, owner identity and the
// ciphertext exactly as stored.
type AdminRecord struct {
	RecordMetadata
	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email"`
	EncryptedData string `json:"encrypted_data"`
}
