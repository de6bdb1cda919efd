package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dsas/internal/model"
)

// RecordRepository defines health record persistence operations. Records are
// write-once, so there is no update.
type RecordRepository interface {
	Create(ctx context.Context, record *model.HealthRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.HealthRecord, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]model.HealthRecord, error)
	ListAllWithPatient(ctx context.Context) ([]model.HealthRecord, error)
}

type recordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

// Create creates a new health record.
func (r *recordRepository) Create(ctx context.Context, record *model.HealthRecord) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error
}

// FindByID finds a health record by ID.
func (r *recordRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.HealthRecord, error) {
	var record model.HealthRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByPatient lists a patient's records, newest first.
func (r *recordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]model.HealthRecord, error) {
	var records []model.HealthRecord
	if err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListAllWithPatient lists every record with its owner loaded.
func (r *recordRepository) ListAllWithPatient(ctx context.Context) ([]model.HealthRecord, error) {
	var records []model.HealthRecord
	if err := r.db.WithContext(ctx).
		Preload("Patient").
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// AccessLogRepository defines access log persistence operations.
type AccessLogRepository interface {
	Create(ctx context.Context, log *model.AccessLog) error
	CreateBatch(ctx context.Context, logs []model.AccessLog) error
	List(ctx context.Context, limit int) ([]model.AccessLog, error)
}

type accessLogRepository struct {
	db *gorm.DB
}

// NewAccessLogRepository creates a new access log repository.
func NewAccessLogRepository(db *gorm.DB) AccessLogRepository {
	return &accessLogRepository{db: db}
}

// Create creates a new access log entry.
func (r *accessLogRepository) Create(ctx context.Context, log *model.AccessLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// CreateBatch creates multiple access log entries in a single statement.
func (r *accessLogRepository) CreateBatch(ctx context.Context, logs []model.AccessLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(logs, 100).Error
}

// List returns the most recent entries.
func (r *accessLogRepository) List(ctx context.Context, limit int) ([]model.AccessLog, error) {
	var logs []model.AccessLog
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
