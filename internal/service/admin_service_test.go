package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsas/internal/errors"
	"dsas/internal/model"
	"dsas/internal/repository"
)

func TestAdminService_UsersByRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.approvedUser(t, model.RoleDoctor, "Greg", "House")
	env.newUser(t, model.RoleDoctor, "New", "Doc")
	patient := env.approvedUser(t, model.RolePatient, "Pat", "Doe")

	doctors, err := env.admin.UsersByRole(ctx, env.adminID, model.RoleDoctor)
	require.NoError(t, err)
	assert.Len(t, doctors, 2)

	_, err = env.admin.UsersByRole(ctx, env.adminID, model.Role("nurse"))
	assert.Equal(t, errors.ErrInvalidRole, err)

	_, err = env.admin.UsersByRole(ctx, patient, model.RolePatient)
	assert.Equal(t, errors.ErrAdminRequired, err)
	_, err = env.admin.AllRecords(ctx, patient)
	assert.Equal(t, errors.ErrAdminRequired, err)
}

func TestAdminService_AccessLogs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	logs := repository.NewAccessLogRepository(env.db)
	for i := 0; i < 3; i++ {
		require.NoError(t, logs.Create(ctx, &model.AccessLog{
			ActorID:   env.adminID.UserID,
			ActorRole: model.RoleAdmin,
			Action:    model.AccessAdminList,
			Outcome:   model.AccessGranted,
		}))
	}

	all, err := env.admin.AccessLogs(ctx, env.adminID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	two, err := env.admin.AccessLogs(ctx, env.adminID, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	patient := env.approvedUser(t, model.RolePatient, "Pat", "Doe")
	_, err = env.admin.AccessLogs(ctx, patient, 10)
	assert.Equal(t, errors.ErrAdminRequired, err)
}
