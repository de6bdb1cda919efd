package service

import (
	"context"

	"dsas/internal/auth"
	"dsas/internal/errors"
	"dsas/internal/model"
)

// DoctorService lists the patients a doctor is responsible for.
type DoctorService interface {
	AssignedPatients(ctx context.Context, requester auth.Identity) ([]model.User, error)
	SearchPatients(ctx context.Context, requester auth.Identity, query string) ([]model.User, error)
}

type doctorService struct {
	gate     ApprovalGate
	registry AssignmentRegistry
}

// NewDoctorService creates a new doctor service.
func NewDoctorService(gate ApprovalGate, registry AssignmentRegistry) DoctorService {
	return &doctorService{gate: gate, registry: registry}
}

func (s *doctorService) authorize(ctx context.Context, requester auth.Identity) error {
	if requester.Role != model.RoleDoctor {
		return errors.ErrForbiddenRole
	}
	return s.gate.RequireApproved(ctx, requester)
}

func (s *doctorService) AssignedPatients(ctx context.Context, requester auth.Identity) ([]model.User, error) {
	if err := s.authorize(ctx, requester); err != nil {
		return nil, err
	}
	return s.registry.PatientsOf(ctx, requester.UserID)
}

// SearchPatients filters the doctor's own patients. Patients of other doctors
// never appear.
func (s *doctorService) SearchPatients(ctx context.Context, requester auth.Identity, query string) ([]model.User, error) {
	if err := s.authorize(ctx, requester); err != nil {
		return nil, err
	}
	return s.registry.SearchPatientsOf(ctx, requester.UserID, query)
}
