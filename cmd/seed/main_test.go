package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dsas/internal/db/dbtest"
	"dsas/internal/model"
	"dsas/internal/repository"
	"dsas/internal/service"
)

func TestSeedAdmin(t *testing.T) {
	gdb := dbtest.New(t)
	repo := repository.NewUserRepository(gdb)
	creds, err := service.NewCredentialStore(repo, bcrypt.MinCost)
	require.NoError(t, err)
	ctx := context.Background()

	opts := AdminOptions{
		Email: "admin@dsas.com", Username: "admin", Password: "change-me-now",
		FirstName: "Admin", LastName: "User",
	}

	var out bytes.Buffer
	require.NoError(t, seedAdmin(ctx, creds, opts, &out))
	assert.Contains(t, out.String(), "Admin user created")

	admin, err := repo.FindByEmail(ctx, "admin@dsas.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.Equal(t, model.ApprovalApproved, admin.ApprovalStatus)

	out.Reset()
	require.NoError(t, seedAdmin(ctx, creds, opts, &out))
	assert.Contains(t, out.String(), "already exists")

	_, err = creds.Verify(ctx, "admin@dsas.com", "change-me-now")
	assert.NoError(t, err)
}

func TestAdminCmdRequiresPassword(t *testing.T) {
	cmd := adminCmd()
	flag := cmd.Flags().Lookup("password")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}
