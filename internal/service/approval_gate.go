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

// ApprovalGate holds the per-account approval state machine:
//
//	pending -> approved
//	pending -> rejected (terminal, cannot log in)
//
// Admins are approved regardless of the stored value.
type ApprovalGate interface {
	SetApproval(ctx context.Context, actor auth.Identity, userID uuid.UUID, approved bool) (*model.User, error)
	CheckLogin(user *model.User) error
	RequireApproved(ctx context.Context, id auth.Identity) error
	ListPending(ctx context.Context, actor auth.Identity, role model.Role) ([]model.User, error)
}

type approvalGate struct {
	repo     repository.UserRepository
	users    UserService
	security *audit.Security
}

// NewApprovalGate creates the approval gate.
func NewApprovalGate(repo repository.UserRepository, users UserService, security *audit.Security) ApprovalGate {
	return &approvalGate{repo: repo, users: users, security: security}
}

func requireAdmin(actor auth.Identity) error {
	if actor.Role != model.RoleAdmin {
		return errors.ErrAdminRequired
	}
	return nil
}

// SetApproval approves or rejects a pending account. Repeating the current
// decision is a no-op; reversing a decision is a conflict.
func (g *approvalGate) SetApproval(ctx context.Context, actor auth.Identity, userID uuid.UUID, approved bool) (*model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := g.repo.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.Role == model.RoleAdmin {
		return user, nil
	}

	target := model.ApprovalRejected
	if approved {
		target = model.ApprovalApproved
	}
	if user.ApprovalStatus == target {
		return user, nil
	}
	if user.ApprovalStatus != model.ApprovalPending {
		return nil, errors.ErrInvalidApprovalTransition
	}

	changed, err := g.repo.UpdateApprovalStatus(ctx, userID, model.ApprovalPending, target)
	if err != nil {
		return nil, fmt.Errorf("update approval status: %w", err)
	}
	g.users.Invalidate(ctx, userID)

	if !changed {
		// someone else decided first; accept it only if they agreed
		current, err := g.repo.FindByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("reload user: %w", err)
		}
		if current.ApprovalStatus != target {
			return nil, errors.ErrInvalidApprovalTransition
		}
		return current, nil
	}

	user.ApprovalStatus = target
	g.security.ApprovalChanged(actor.UserID, userID, string(target))
	return user, nil
}

// CheckLogin runs after the password has been verified. Pending accounts may
// log in and are blocked per operation; rejected accounts may not.
func (g *approvalGate) CheckLogin(user *model.User) error {
	if user.Role != model.RoleAdmin && user.ApprovalStatus == model.ApprovalRejected {
		return errors.ErrAccountRejected
	}
	return nil
}

// RequireApproved reads the caller's current status, so an approval granted
// after the token was issued takes effect immediately.
func (g *approvalGate) RequireApproved(ctx context.Context, id auth.Identity) error {
	if id.Role == model.RoleAdmin {
		return nil
	}

	user, err := g.users.GetUser(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return errors.ErrInvalidToken
		}
		return err
	}
	if user.Role != id.Role {
		return errors.ErrInvalidToken
	}

	switch user.ApprovalStatus {
	case model.ApprovalApproved:
		return nil
	case model.ApprovalRejected:
		return errors.ErrAccountRejected
	default:
		return errors.ErrPendingApproval
	}
}

// ListPending lists accounts awaiting a decision, optionally for one role.
func (g *approvalGate) ListPending(ctx context.Context, actor auth.Identity, role model.Role) ([]model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	roles := []model.Role{model.RolePatient, model.RoleDoctor}
	if role != "" {
		if !role.SelfRegistrable() {
			return nil, errors.ErrInvalidRole
		}
		roles = []model.Role{role}
	}

	users, err := g.repo.ListByStatus(ctx, model.ApprovalPending, roles...)
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}
	return users, nil
}
