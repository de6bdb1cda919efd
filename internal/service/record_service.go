package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dsas/internal/audit"
	"dsas/internal/auth"
	"dsas/internal/errors"
	"dsas/internal/model"
	"dsas/internal/repository"
	"dsas/internal/vault"
)

// UploadInput is a document submitted by a patient.
type UploadInput struct {
	DataType string         `validate:"required,datatype"`
	Document vault.Document `validate:"required"`
	FileName string         `validate:"max=255"`
	FileSize int64          `validate:"gte=0"`
}

// RecordService stores and returns health records. Every read and write goes
// through the AccessGuard first; decryption happens only after a grant.
type RecordService interface {
	Upload(ctx context.Context, requester auth.Identity, in UploadInput) (*model.RecordMetadata, error)
	OwnRecords(ctx context.Context, requester auth.Identity) ([]model.RecordMetadata, error)
	OwnRecord(ctx context.Context, requester auth.Identity, recordID uuid.UUID) (*model.HealthRecord, error)
	MyDoctor(ctx context.Context, requester auth.Identity) (*model.User, error)
	PatientRecords(ctx context.Context, requester auth.Identity, patientID uuid.UUID) ([]model.DecryptedRecord, error)
	RecordForDoctor(ctx context.Context, requester auth.Identity, recordID uuid.UUID) (*model.DecryptedRecord, error)
}

type recordService struct {
	records   repository.RecordRepository
	guard     AccessGuard
	gate      ApprovalGate
	registry  AssignmentRegistry
	vault     *vault.Vault
	validator *InputValidator
	security  *audit.Security
}

// NewRecordService creates a new record service.
func NewRecordService(
	records repository.RecordRepository,
	guard AccessGuard,
	gate ApprovalGate,
	registry AssignmentRegistry,
	v *vault.Vault,
	security *audit.Security,
) RecordService {
	return &recordService{
		records:   records,
		guard:     guard,
		gate:      gate,
		registry:  registry,
		vault:     v,
		validator: NewInputValidator(),
		security:  security,
	}
}

// Upload encrypts the document and stores it for the requesting patient.
func (s *recordService) Upload(ctx context.Context, requester auth.Identity, in UploadInput) (*model.RecordMetadata, error) {
	if err := s.guard.AuthorizeWrite(ctx, requester, requester.UserID); err != nil {
		return nil, err
	}

	in.DataType = strings.TrimSpace(in.DataType)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if len(in.Document) > maxDocumentKeys {
		return nil, errors.WithMessage(errors.ErrInvalidInput, fmt.Sprintf("document has more than %d fields", maxDocumentKeys))
	}

	ct, err := s.vault.Encrypt(in.Document)
	if err != nil {
		return nil, err
	}

	record := &model.HealthRecord{
		PatientID:     requester.UserID,
		EncryptedData: string(ct),
		DataType:      in.DataType,
		FileName:      strings.TrimSpace(in.FileName),
		FileSize:      in.FileSize,
	}
	if record.FileSize == 0 {
		record.FileSize = int64(len(ct))
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	meta := record.Metadata()
	return &meta, nil
}

// OwnRecords lists the requester's records without payloads.
func (s *recordService) OwnRecords(ctx context.Context, requester auth.Identity) ([]model.RecordMetadata, error) {
	if err := s.guard.AuthorizeRead(ctx, requester, requester.UserID); err != nil {
		return nil, err
	}

	records, err := s.records.ListByPatient(ctx, requester.UserID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]model.RecordMetadata, 0, len(records))
	for i := range records {
		out = append(out, records[i].Metadata())
	}
	return out, nil
}

// OwnRecord returns one of the requester's records as stored, ciphertext
// included. Records of other patients read as not found.
func (s *recordService) OwnRecord(ctx context.Context, requester auth.Identity, recordID uuid.UUID) (*model.HealthRecord, error) {
	if err := s.guard.AuthorizeRead(ctx, requester, requester.UserID); err != nil {
		return nil, err
	}

	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	if record.PatientID != requester.UserID {
		return nil, errors.ErrRecordNotFound
	}
	return record, nil
}

// MyDoctor returns the requester's assigned doctor, or nil.
func (s *recordService) MyDoctor(ctx context.Context, requester auth.Identity) (*model.User, error) {
	if requester.Role != model.RolePatient {
		return nil, errors.ErrForbiddenRole
	}
	if err := s.gate.RequireApproved(ctx, requester); err != nil {
		return nil, err
	}
	return s.registry.DoctorOf(ctx, requester.UserID)
}

// PatientRecords decrypts every record of a patient for their assigned doctor.
func (s *recordService) PatientRecords(ctx context.Context, requester auth.Identity, patientID uuid.UUID) ([]model.DecryptedRecord, error) {
	if err := s.guard.AuthorizeRead(ctx, requester, patientID); err != nil {
		return nil, err
	}

	records, err := s.records.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]model.DecryptedRecord, 0, len(records))
	for i := range records {
		rec, err := s.open(&records[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// RecordForDoctor decrypts a single record. An unknown id is indistinguishable
// from a record of a patient the doctor is not assigned to.
func (s *recordService) RecordForDoctor(ctx context.Context, requester auth.Identity, recordID uuid.UUID) (*model.DecryptedRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("find record: %w", err)
		}
		record = &model.HealthRecord{ID: recordID}
	}

	if err := s.guard.AuthorizeRecordRead(ctx, requester, record); err != nil {
		return nil, err
	}
	return s.open(record)
}

func (s *recordService) open(record *model.HealthRecord) (*model.DecryptedRecord, error) {
	doc, err := s.vault.Decrypt(vault.Ciphertext(record.EncryptedData))
	if err != nil {
		s.security.IntegrityAlarm(record.ID, err)
		return nil, err
	}
	return &model.DecryptedRecord{RecordMetadata: record.Metadata(), Data: doc}, nil
}
