package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsas/internal/auth"
	"dsas/internal/errors"
	"dsas/internal/model"
)

func TestAssignmentRegistry_Assign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doctor := env.approvedUser(t, model.RoleDoctor, "Greg", "House")
	other := env.approvedUser(t, model.RoleDoctor, "Lisa", "Cuddy")
	patient := env.approvedUser(t, model.RolePatient, "Pat", "Doe")

	tests := []struct {
		name          string
		actor         auth.Identity
		doctorID      uuid.UUID
		patientID     uuid.UUID
		expectedError *errors.Error
	}{
		{name: "non admin", actor: doctor, doctorID: doctor.UserID, patientID: patient.UserID, expectedError: errors.ErrAdminRequired},
		{name: "unknown doctor", actor: env.adminID, doctorID: uuid.New(), patientID: patient.UserID, expectedError: errors.ErrDoctorNotFound},
		{name: "doctor is a patient", actor: env.adminID, doctorID: patient.UserID, patientID: patient.UserID, expectedError: errors.ErrDoctorNotFound},
		{name: "patient is a doctor", actor: env.adminID, doctorID: doctor.UserID, patientID: other.UserID, expectedError: errors.ErrPatientNotFound},
		{name: "success", actor: env.adminID, doctorID: doctor.UserID, patientID: patient.UserID},
		{name: "same pair again", actor: env.adminID, doctorID: doctor.UserID, patientID: patient.UserID, expectedError: errors.ErrAlreadyAssignedToThisDoctor},
		{name: "second doctor", actor: env.adminID, doctorID: other.UserID, patientID: patient.UserID, expectedError: errors.ErrPatientHasOtherDoctor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := env.registry.Assign(ctx, tt.actor, tt.doctorID, tt.patientID)
			if tt.expectedError != nil {
				assert.True(t, errors.Is(err, tt.expectedError), "got %v", err)
				assert.Nil(t, a)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.doctorID, a.DoctorID)
		})
	}

	doc, err := env.registry.DoctorOf(ctx, patient.UserID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, doctor.UserID, doc.ID)
}

func TestAssignmentRegistry_AssignRequiresApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doctor := env.approvedUser(t, model.RoleDoctor, "Greg", "House")
	pendingDoctor := env.newUser(t, model.RoleDoctor, "New", "Doc")
	pendingPatient := env.newUser(t, model.RolePatient, "New", "Pat")
	patient := env.approvedUser(t, model.RolePatient, "Pat", "Doe")

	_, err := env.registry.Assign(ctx, env.adminID, pendingDoctor.ID, patient.UserID)
	assert.True(t, errors.Is(err, errors.ErrNotApproved), "got %v", err)

	_, err = env.registry.Assign(ctx, env.adminID, doctor.UserID, pendingPatient.ID)
	assert.True(t, errors.Is(err, errors.ErrNotApproved), "got %v", err)
}

func TestAssignmentRegistry_ConcurrentAssign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	patient := env.approvedUser(t, model.RolePatient, "Pat", "Doe")
	var doctors []auth.Identity
	for i := 0; i < 6; i++ {
		doctors = append(doctors, env.approvedUser(t, model.RoleDoctor, "Doc", "Tor"))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, d := range doctors {
		wg.Add(1)
		go func(d auth.Identity) {
			defer wg.Done()
			_, err := env.registry.Assign(ctx, env.adminID, d.UserID, patient.UserID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, errors.ErrPatientHasOtherDoctor):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(d)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, len(doctors)-1, conflicts)

	var count int64
	require.NoError(t, env.db.Model(&model.Assignment{}).Where("patient_id = ?", patient.UserID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAssignmentRegistry_Unassign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doctor := env.approvedUser(t, model.RoleDoctor, "Greg", "House")
	other := env.approvedUser(t, model.RoleDoctor, "Lisa", "Cuddy")
	patient := env.approvedUser(t, model.RolePatient, "Pat", "Doe")
	env.assign(t, doctor, patient)

	assert.Equal(t, errors.ErrAdminRequired, env.registry.Unassign(ctx, doctor, doctor.UserID, patient.UserID))

	// wrong pair removes nothing
	require.NoError(t, env.registry.Unassign(ctx, env.adminID, other.UserID, patient.UserID))
	doc, err := env.registry.DoctorOf(ctx, patient.UserID)
	require.NoError(t, err)
	require.NotNil(t, doc)

	require.NoError(t, env.registry.Unassign(ctx, env.adminID, doctor.UserID, patient.UserID))
	doc, err = env.registry.DoctorOf(ctx, patient.UserID)
	require.NoError(t, err)
	assert.Nil(t, doc)

	// the patient is free for another doctor
	env.assign(t, other, patient)
}

func TestAssignmentRegistry_AssignmentData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doctor := env.approvedUser(t, model.RoleDoctor, "Greg", "House")
	assigned := env.approvedUser(t, model.RolePatient, "Pat", "One")
	free := env.approvedUser(t, model.RolePatient, "Pat", "Two")
	env.newUser(t, model.RolePatient, "Still", "Pending")
	env.assign(t, doctor, assigned)

	data, err := env.registry.AssignmentData(ctx, env.adminID)
	require.NoError(t, err)
	require.Len(t, data.UnassignedPatients, 1)
	assert.Equal(t, free.UserID, data.UnassignedPatients[0].ID)
	require.Len(t, data.UnassignedDoctors, 1)
	assert.Equal(t, doctor.UserID, data.UnassignedDoctors[0].ID)

	_, err = env.registry.AssignmentData(ctx, doctor)
	assert.Equal(t, errors.ErrAdminRequired, err)
}
