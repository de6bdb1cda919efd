package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dsas/internal/cache"
	"dsas/internal/errors"
	"dsas/internal/model"
	"dsas/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService is the cached identity lookup used on every protected request.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	Invalidate(ctx context.Context, id uuid.UUID)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// GetUser returns the user without its password hash, which is never cached.
// Only approved accounts are cached, since approval is final. Any other status
// reads through to the database, so a lookup racing SetApproval cannot leave a
// stale pending entry behind.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil && cached.ID == id && cached.Approved() {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.PasswordHash = ""
	if !user.Approved() {
		return user, nil
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

// Invalidate drops the cached copy after a status change.
func (s *userService) Invalidate(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}
