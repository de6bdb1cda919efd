package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dsas/internal/model"
)

// AssignmentRepository defines doctor/patient assignment persistence operations.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	Delete(ctx context.Context, doctorID, patientID uuid.UUID) (int64, error)
	FindByPatient(ctx context.Context, patientID uuid.UUID) (*model.Assignment, error)
	ListPatientsOf(ctx context.Context, doctorID uuid.UUID, query string) ([]model.User, error)
	ListUnassignedPatients(ctx context.Context) ([]model.User, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// Create inserts the pair. Uniqueness is left entirely to the table's
// indexes; callers classify the duplicate-key error.
func (r *assignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(assignment).Error
}

// Delete removes the pair and returns how many rows went away.
func (r *assignmentRepository) Delete(ctx context.Context, doctorID, patientID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("doctor_id = ? AND patient_id = ?", doctorID, patientID).
		Delete(&model.Assignment{})
	return res.RowsAffected, res.Error
}

// FindByPatient finds the assignment of a patient.
func (r *assignmentRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) (*model.Assignment, error) {
	var assignment model.Assignment
	if err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListPatientsOf lists approved patients assigned to the doctor. A non-empty
// query filters on name, email and username.
func (r *assignmentRepository) ListPatientsOf(ctx context.Context, doctorID uuid.UUID, query string) ([]model.User, error) {
	q := r.db.WithContext(ctx).
		Model(&model.User{}).
		Joins("JOIN doctor_patient_assignments a ON a.patient_id = users.id").
		Where("a.doctor_id = ?", doctorID).
		Where("users.role = ? AND users.approval_status = ?", model.RolePatient, model.ApprovalApproved)

	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where(
			"(LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(users.username) LIKE ?)",
			like, like, like, like,
		)
	}

	var users []model.User
	if err := q.Order("users.last_name, users.first_name").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListUnassignedPatients lists approved patients with no doctor.
func (r *assignmentRepository) ListUnassignedPatients(ctx context.Context) ([]model.User, error) {
	assigned := r.db.Model(&model.Assignment{}).Select("patient_id")

	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("role = ? AND approval_status = ?", model.RolePatient, model.ApprovalApproved).
		Where("id NOT IN (?)", assigned).
		Order("created_at").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
