package service

import (
	"context"
	"fmt"

	"dsas/internal/audit"
	"dsas/internal/auth"
	"dsas/internal/errors"
	"dsas/internal/model"
	"dsas/internal/repository"
)

const (
	defaultAccessLogLimit = 100
	maxAccessLogLimit     = 1000
)

// AdminService serves the admin dashboard. It is built without a vault, so
// nothing reachable from here can produce plaintext.
type AdminService interface {
	AllRecords(ctx context.Context, actor auth.Identity) ([]model.AdminRecord, error)
	UsersByRole(ctx context.Context, actor auth.Identity, role model.Role) ([]model.User, error)
	AccessLogs(ctx context.Context, actor auth.Identity, limit int) ([]model.AccessLog, error)
}

type adminService struct {
	records  repository.RecordRepository
	users    repository.UserRepository
	logs     repository.AccessLogRepository
	recorder audit.AccessRecorder
}

// NewAdminService creates a new admin service.
func NewAdminService(
	records repository.RecordRepository,
	users repository.UserRepository,
	logs repository.AccessLogRepository,
	recorder audit.AccessRecorder,
) AdminService {
	return &adminService{
		records:  records,
		users:    users,
		logs:     logs,
		recorder: recorder,
	}
}

// AllRecords returns metadata and the stored ciphertext of every record.
func (s *adminService) AllRecords(ctx context.Context, actor auth.Identity) ([]model.AdminRecord, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	records, err := s.records.ListAllWithPatient(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]model.AdminRecord, 0, len(records))
	for i := range records {
		r := &records[i]
		out = append(out, model.AdminRecord{
			RecordMetadata: r.Metadata(),
			PatientName:    r.Patient.FullName(),
			PatientEmail:   r.Patient.Email,
			EncryptedData:  r.EncryptedData,
		})
	}

	s.recorder.Record(ctx, model.AccessLog{
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		Action:    model.AccessAdminList,
		Outcome:   model.AccessGranted,
	})
	return out, nil
}

func (s *adminService) UsersByRole(ctx context.Context, actor auth.Identity, role model.Role) ([]model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, errors.ErrInvalidRole
	}

	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// AccessLogs returns the most recent access decisions.
func (s *adminService) AccessLogs(ctx context.Context, actor auth.Identity, limit int) ([]model.AccessLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAccessLogLimit
	}
	if limit > maxAccessLogLimit {
		limit = maxAccessLogLimit
	}

	logs, err := s.logs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list access logs: %w", err)
	}
	return logs, nil
}
