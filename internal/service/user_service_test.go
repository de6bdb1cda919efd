package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"dsas/internal/auth"
	"dsas/internal/cache"
	"dsas/internal/errors"
	"dsas/internal/model"
)

func cachedUser(id uuid.UUID, status model.ApprovalStatus) *model.User {
	return &model.User{
		ID:             id,
		Username:       "jdoe",
		Email:          "jdoe@example.com",
		Role:           model.RolePatient,
		FirstName:      "Jane",
		LastName:       "Doe",
		ApprovalStatus: status,
	}
}

func TestUserService_CachesApprovedUsers(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	defer db.Close()
	repo := new(MockUserRepository)
	users := NewUserService(repo, cache.NewFromClient(db))
	ctx := context.Background()

	id := uuid.New()
	payload, err := json.Marshal(cachedUser(id, model.ApprovalApproved))
	require.NoError(t, err)

	repo.On("FindByID", ctx, id).Return(cachedUser(id, model.ApprovalApproved), nil).Once()
	redisMock.ExpectGet("user:" + id.String()).RedisNil()
	redisMock.ExpectSet("user:"+id.String(), payload, userCacheTTL).SetVal("OK")
	redisMock.ExpectGet("user:" + id.String()).SetVal(string(payload))

	first, err := users.GetUser(ctx, id)
	require.NoError(t, err)
	second, err := users.GetUser(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalApproved, first.ApprovalStatus)
	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.PasswordHash)
	assert.NoError(t, redisMock.ExpectationsWereMet())
	repo.AssertExpectations(t)
}

func TestUserService_PendingUsersReadThrough(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	defer db.Close()
	repo := new(MockUserRepository)
	users := NewUserService(repo, cache.NewFromClient(db))
	ctx := context.Background()

	id := uuid.New()
	repo.On("FindByID", ctx, id).Return(cachedUser(id, model.ApprovalPending), nil).Once()
	repo.On("FindByID", ctx, id).Return(cachedUser(id, model.ApprovalApproved), nil).Once()
	redisMock.ExpectGet("user:" + id.String()).RedisNil()
	redisMock.ExpectGet("user:" + id.String()).RedisNil()
	approved, err := json.Marshal(cachedUser(id, model.ApprovalApproved))
	require.NoError(t, err)
	redisMock.ExpectSet("user:"+id.String(), approved, userCacheTTL).SetVal("OK")

	first, err := users.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalPending, first.ApprovalStatus)

	second, err := users.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, second.ApprovalStatus)

	assert.NoError(t, redisMock.ExpectationsWereMet())
	repo.AssertExpectations(t)
}

// A pending entry written back by a lookup that raced an approval must not
// keep the account blocked.
func TestApprovalGate_IgnoresStalePendingCacheEntry(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	defer db.Close()
	repo := new(MockUserRepository)
	users := NewUserService(repo, cache.NewFromClient(db))
	gate := NewApprovalGate(repo, users, nil)
	ctx := context.Background()

	id := uuid.New()
	stale, err := json.Marshal(cachedUser(id, model.ApprovalPending))
	require.NoError(t, err)
	fresh, err := json.Marshal(cachedUser(id, model.ApprovalApproved))
	require.NoError(t, err)

	redisMock.ExpectGet("user:" + id.String()).SetVal(string(stale))
	repo.On("FindByID", ctx, id).Return(cachedUser(id, model.ApprovalApproved), nil).Once()
	redisMock.ExpectSet("user:"+id.String(), fresh, userCacheTTL).SetVal("OK")

	err = gate.RequireApproved(ctx, auth.Identity{UserID: id, Role: model.RolePatient})
	assert.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
	repo.AssertExpectations(t)
}

func TestUserService_NotFound(t *testing.T) {
	repo := new(MockUserRepository)
	users := NewUserService(repo, nil)
	ctx := context.Background()

	id := uuid.New()
	repo.On("FindByID", ctx, id).Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := users.GetUser(ctx, id)
	assert.True(t, errors.Is(err, errors.ErrUserNotFound))
}
