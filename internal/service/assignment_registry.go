package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"dsas/internal/audit"
	"dsas/internal/auth"
	"dsas/internal/errors"
	"dsas/internal/model"
	"dsas/internal/repository"
)

// AssignmentRegistry maintains doctor/patient pairs. A patient has at most
// one doctor; a doctor may have many patients.
type AssignmentRegistry interface {
	Assign(ctx context.Context, actor auth.Identity, doctorID, patientID uuid.UUID) (*model.Assignment, error)
	Unassign(ctx context.Context, actor auth.Identity, doctorID, patientID uuid.UUID) error
	// DoctorOf returns the patient's doctor, or nil when unassigned.
	DoctorOf(ctx context.Context, patientID uuid.UUID) (*model.User, error)
	PatientsOf(ctx context.Context, doctorID uuid.UUID) ([]model.User, error)
	SearchPatientsOf(ctx context.Context, doctorID uuid.UUID, query string) ([]model.User, error)
	UnassignedPatients(ctx context.Context) ([]model.User, error)
	UnassignedDoctors(ctx context.Context) ([]model.User, error)
	AssignmentData(ctx context.Context, actor auth.Identity) (*model.AssignmentData, error)
}

type assignmentRegistry struct {
	repo     repository.AssignmentRepository
	userRepo repository.UserRepository
	users    UserService
	security *audit.Security
}

// NewAssignmentRegistry creates a new assignment registry.
func NewAssignmentRegistry(
	repo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	users UserService,
	security *audit.Security,
) AssignmentRegistry {
	return &assignmentRegistry{
		repo:     repo,
		userRepo: userRepo,
		users:    users,
		security: security,
	}
}

// Assign pairs a doctor with a patient. The insert is the only check for
// conflicts: the unique index on patient_id decides between concurrent
// callers, and the loser's error is classified afterwards.
func (r *assignmentRegistry) Assign(ctx context.Context, actor auth.Identity, doctorID, patientID uuid.UUID) (*model.Assignment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	doctor, err := r.member(ctx, doctorID, model.RoleDoctor, errors.ErrDoctorNotFound)
	if err != nil {
		return nil, err
	}
	patient, err := r.member(ctx, patientID, model.RolePatient, errors.ErrPatientNotFound)
	if err != nil {
		return nil, err
	}
	if !doctor.Approved() {
		return nil, errors.WithMessage(errors.ErrNotApproved, "doctor is not approved")
	}
	if !patient.Approved() {
		return nil, errors.WithMessage(errors.ErrNotApproved, "patient is not approved")
	}

	assignment := &model.Assignment{DoctorID: doctorID, PatientID: patientID}
	if err := r.repo.Create(ctx, assignment); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, r.classifyConflict(ctx, doctorID, patientID, err)
		}
		return nil, fmt.Errorf("create assignment: %w", err)
	}

	r.security.AssignmentChanged(doctorID, patientID, "assign")
	return assignment, nil
}

func (r *assignmentRegistry) member(ctx context.Context, id uuid.UUID, role model.Role, notFound *errors.Error) (*model.User, error) {
	user, err := r.userRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound
		}
		return nil, fmt.Errorf("find %s: %w", role, err)
	}
	if user.Role != role {
		return nil, notFound
	}
	return user, nil
}

func (r *assignmentRegistry) classifyConflict(ctx context.Context, doctorID, patientID uuid.UUID, cause error) error {
	existing, err := r.repo.FindByPatient(ctx, patientID)
	if err == nil && existing.DoctorID == doctorID {
		return errors.Wrap(errors.ErrAlreadyAssignedToThisDoctor, cause)
	}
	return errors.Wrap(errors.ErrPatientHasOtherDoctor, cause)
}

// Unassign removes the pair. Removing a pair that does not exist is a no-op.
func (r *assignmentRegistry) Unassign(ctx context.Context, actor auth.Identity, doctorID, patientID uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	n, err := r.repo.Delete(ctx, doctorID, patientID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if n > 0 {
		r.security.AssignmentChanged(doctorID, patientID, "unassign")
	}
	return nil
}

func (r *assignmentRegistry) DoctorOf(ctx context.Context, patientID uuid.UUID) (*model.User, error) {
	assignment, err := r.repo.FindByPatient(ctx, patientID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}

	doctor, err := r.users.GetUser(ctx, assignment.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	return doctor, nil
}

func (r *assignmentRegistry) PatientsOf(ctx context.Context, doctorID uuid.UUID) ([]model.User, error) {
	return r.SearchPatientsOf(ctx, doctorID, "")
}

func (r *assignmentRegistry) SearchPatientsOf(ctx context.Context, doctorID uuid.UUID, query string) ([]model.User, error) {
	patients, err := r.repo.ListPatientsOf(ctx, doctorID, query)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

func (r *assignmentRegistry) UnassignedPatients(ctx context.Context) ([]model.User, error) {
	patients, err := r.repo.ListUnassignedPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unassigned patients: %w", err)
	}
	return patients, nil
}

// UnassignedDoctors returns every approved doctor, since doctors can always
// take another patient.
func (r *assignmentRegistry) UnassignedDoctors(ctx context.Context) ([]model.User, error) {
	doctors, err := r.userRepo.ListByStatus(ctx, model.ApprovalApproved, model.RoleDoctor)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

func (r *assignmentRegistry) AssignmentData(ctx context.Context, actor auth.Identity) (*model.AssignmentData, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	patients, err := r.UnassignedPatients(ctx)
	if err != nil {
		return nil, err
	}
	doctors, err := r.UnassignedDoctors(ctx)
	if err != nil {
		return nil, err
	}
	return &model.AssignmentData{UnassignedPatients: patients, UnassignedDoctors: doctors}, nil
}
