package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"dsas/internal/errors"
	"dsas/internal/model"
	"dsas/internal/repository"
)

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 10

// NewUser is the input for account creation.
type NewUser struct {
	Username       string     `validate:"required,min=3,max=100"`
	Email          string     `validate:"required,email,max=255"`
	Password       string     `validate:"required,min=6,max=72"`
	Role           model.Role `validate:"required,oneof=patient doctor admin"`
	FirstName      string     `validate:"required,max=100"`
	LastName       string     `validate:"required,max=100"`
	Phone          string     `validate:"max=30"`
	Specialization string     `validate:"max=100"`
}

// CredentialStore owns password hashes. Hashes never leave it.
type CredentialStore interface {
	// Verify returns the user for a matching email and password. Unknown
	// email and wrong password fail identically.
	Verify(ctx context.Context, email, password string) (*model.User, error)
	// Create hashes the password and stores a new account. Non-admin
	// accounts start pending.
	Create(ctx context.Context, in NewUser) (*model.User, error)
}

type credentialStore struct {
	repo      repository.UserRepository
	validator *InputValidator
	cost      int
	dummyHash []byte
}

// NewCredentialStore creates a credential store hashing with the given bcrypt cost.
func NewCredentialStore(repo repository.UserRepository, cost int) (CredentialStore, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	// compared against when the email is unknown so both failure paths cost the same
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return &credentialStore{
		repo:      repo,
		validator: NewInputValidator(),
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

func (s *credentialStore) Verify(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, errors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *credentialStore) Create(ctx context.Context, in NewUser) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if in.Role != model.RoleDoctor {
		in.Specialization = ""
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:       in.Username,
		Email:          in.Email,
		PasswordHash:   string(hashed),
		Role:           in.Role,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Phone:          strings.TrimSpace(in.Phone),
		Specialization: strings.TrimSpace(in.Specialization),
		ApprovalStatus: model.ApprovalPending,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, s.whichTaken(ctx, in.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// whichTaken tells a duplicate email from a duplicate username after the
// unique index has rejected the insert.
func (s *credentialStore) whichTaken(ctx context.Context, email string) error {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return errors.ErrEmailTaken
	}
	return errors.ErrUsernameTaken
}
