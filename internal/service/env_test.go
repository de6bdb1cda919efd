package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dsas/internal/audit"
	"dsas/internal/auth"
	"dsas/internal/db/dbtest"
	"dsas/internal/model"
	"dsas/internal/repository"
	"dsas/internal/vault"
)

// recorderStub keeps access decisions in memory.
type recorderStub struct {
	mu      sync.Mutex
	entries []model.AccessLog
}

func (r *recorderStub) Record(_ context.Context, entry model.AccessLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recorderStub) last() model.AccessLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

type testEnv struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	creds    CredentialStore
	gate     ApprovalGate
	registry AssignmentRegistry
	guard    AccessGuard
	records  RecordService
	admin    AdminService
	doctors  DoctorService
	recorder *recorderStub
	vault    *vault.Vault

	adminID auth.Identity
	seq     int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := dbtest.New(t)

	v, err := vault.New(bytes.Repeat([]byte{7}, vault.KeySize))
	require.NoError(t, err)

	security := audit.NewSecurity(zerolog.Nop())
	userRepo := repository.NewUserRepository(gdb)
	recordRepo := repository.NewRecordRepository(gdb)
	users := NewUserService(userRepo, nil)
	creds, err := NewCredentialStore(userRepo, bcrypt.MinCost)
	require.NoError(t, err)

	gate := NewApprovalGate(userRepo, users, security)
	registry := NewAssignmentRegistry(repository.NewAssignmentRepository(gdb), userRepo, users, security)
	recorder := &recorderStub{}
	guard := NewAccessGuard(gate, registry, recorder, security)

	env := &testEnv{
		db:       gdb,
		userRepo: userRepo,
		creds:    creds,
		gate:     gate,
		registry: registry,
		guard:    guard,
		records:  NewRecordService(recordRepo, guard, gate, registry, v, security),
		admin:    NewAdminService(recordRepo, userRepo, repository.NewAccessLogRepository(gdb), recorder),
		doctors:  NewDoctorService(gate, registry),
		recorder: recorder,
		vault:    v,
	}

	adminUser := env.newUser(t, model.RoleAdmin, "Ada", "Admin")
	env.adminID = identityOf(adminUser)
	return env
}

func identityOf(u *model.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role, Approved: u.Approved()}
}

// newUser creates a pending account (admins are always approved).
func (e *testEnv) newUser(t *testing.T, role model.Role, first, last string) *model.User {
	t.Helper()
	e.seq++
	u, err := e.creds.Create(context.Background(), NewUser{
		Username:  fmt.Sprintf("%s%d", role, e.seq),
		Email:     fmt.Sprintf("%s%d@example.com", role, e.seq),
		Password:  "password123",
		Role:      role,
		FirstName: first,
		LastName:  last,
	})
	require.NoError(t, err)
	return u
}

// approvedUser creates an account and has the admin approve it.
func (e *testEnv) approvedUser(t *testing.T, role model.Role, first, last string) auth.Identity {
	t.Helper()
	u := e.newUser(t, role, first, last)
	_, err := e.gate.SetApproval(context.Background(), e.adminID, u.ID, true)
	require.NoError(t, err)
	return identityOf(u)
}

func (e *testEnv) assign(t *testing.T, doctor, patient auth.Identity) {
	t.Helper()
	_, err := e.registry.Assign(context.Background(), e.adminID, doctor.UserID, patient.UserID)
	require.NoError(t, err)
}
