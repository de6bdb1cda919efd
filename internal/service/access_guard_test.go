package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dsas/internal/audit"
	"dsas/internal/auth"
	"dsas/internal/errors"
	"dsas/internal/model"
)

func TestAccessGuard_AuthorizeRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doctor := env.approvedUser(t, model.RoleDoctor, "Greg", "House")
	stranger := env.approvedUser(t, model.RoleDoctor, "Lisa", "Cuddy")
	patient := env.approvedUser(t, model.RolePatient, "Pat", "Doe")
	otherPatient := env.approvedUser(t, model.RolePatient, "Sam", "Roe")
	pendingDoctor := identityOf(env.newUser(t, model.RoleDoctor, "New", "Doc"))
	env.assign(t, doctor, patient)

	tests := []struct {
		name          string
		requester     auth.Identity
		patientID     uuid.UUID
		expectedError *errors.Error
	}{
		{name: "patient reads own", requester: patient, patientID: patient.UserID},
		{name: "patient reads another", requester: patient, patientID: otherPatient.UserID, expectedError: errors.ErrNotOwner},
		{name: "assigned doctor", requester: doctor, patientID: patient.UserID},
		{name: "unassigned doctor", requester: stranger, patientID: patient.UserID, expectedError: errors.ErrNotAssigned},
		{name: "doctor with unknown patient", requester: doctor, patientID: uuid.New(), expectedError: errors.ErrNotAssigned},
		{name: "pending doctor", requester: pendingDoctor, patientID: patient.UserID, expectedError: errors.ErrPendingApproval},
		{name: "admin never reads plaintext", requester: env.adminID, patientID: patient.UserID, expectedError: errors.ErrAdminNoPlaintext},
		{name: "unknown role", requester: auth.Identity{UserID: patient.UserID, Role: "nurse"}, patientID: patient.UserID, expectedError: errors.ErrForbiddenRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.guard.AuthorizeRead(ctx, tt.requester, tt.patientID)
			entry := env.recorder.last()
			assert.Equal(t, tt.requester.UserID, entry.ActorID)

			if tt.expectedError == nil {
				assert.NoError(t, err)
				assert.Equal(t, model.AccessGranted, entry.Outcome)
				return
			}
			assert.True(t, errors.Is(err, tt.expectedError), "got %v", err)
			assert.Equal(t, model.AccessDenied, entry.Outcome)
			assert.NotEmpty(t, entry.Reason)
		})
	}
}

func TestAccessGuard_AuthorizeWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doctor := env.approvedUser(t, model.RoleDoctor, "Greg", "House")
	patient := env.approvedUser(t, model.RolePatient, "Pat", "Doe")
	env.assign(t, doctor, patient)

	assert.NoError(t, env.guard.AuthorizeWrite(ctx, patient, patient.UserID))
	assert.Equal(t, model.AccessUpload, env.recorder.last().Action)

	assert.Equal(t, errors.ErrForbiddenRole, env.guard.AuthorizeWrite(ctx, doctor, patient.UserID))
	assert.Equal(t, errors.ErrForbiddenRole, env.guard.AuthorizeWrite(ctx, env.adminID, patient.UserID))
	assert.Equal(t, errors.ErrNotOwner, env.guard.AuthorizeWrite(ctx, patient, doctor.UserID))
}

func TestAccessGuard_RecordsDenials(t *testing.T) {
	mockRecorder := new(MockAccessRecorder)
	env := newTestEnv(t)
	guard := NewAccessGuard(env.gate, env.registry, mockRecorder, audit.NewSecurity(zerolog.Nop()))

	stranger := env.approvedUser(t, model.RoleDoctor, "Lisa", "Cuddy")
	patient := env.approvedUser(t, model.RolePatient, "Pat", "Doe")

	mockRecorder.On("Record", mock.Anything, mock.MatchedBy(func(e model.AccessLog) bool {
		return e.Outcome == model.AccessDenied &&
			e.Reason == "NOT_ASSIGNED" &&
			e.Action == model.AccessReadAssigned &&
			e.PatientID != nil && *e.PatientID == patient.UserID
	})).Once()

	err := guard.AuthorizeRead(context.Background(), stranger, patient.UserID)
	require.Error(t, err)
	mockRecorder.AssertExpectations(t)
}
