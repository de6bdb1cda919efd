package service

import (
	"context"
	"fmt"
	"time"

	"dsas/internal/audit"
	"dsas/internal/auth"
	"dsas/internal/errors"
	"dsas/internal/model"
)

// Session is what a successful login or registration returns.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *model.User
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in NewUser) (*Session, error)
	Login(ctx context.Context, email, password, clientIP string) (*Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, access *auth.Claims, refreshToken string) error
	CurrentUser(ctx context.Context, id auth.Identity) (*model.User, error)
}

type authService struct {
	creds      CredentialStore
	gate       ApprovalGate
	users      UserService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	security   *audit.Security
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	creds CredentialStore,
	gate ApprovalGate,
	users UserService,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	security *audit.Security,
) AuthService {
	return &authService{
		creds:      creds,
		gate:       gate,
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		security:   security,
	}
}

// Register creates a pending patient or doctor account and logs it in.
// The session is usable immediately but protected operations stay blocked
// until an admin approves the account.
func (s *authService) Register(ctx context.Context, in NewUser) (*Session, error) {
	if !in.Role.SelfRegistrable() {
		return nil, errors.WithMessage(errors.ErrInvalidRole, "role must be patient or doctor")
	}

	user, err := s.creds.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.security.SignupSuccess(user.ID, string(user.Role))

	return s.issue(ctx, user)
}

// Login verifies credentials and issues access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password, clientIP string) (*Session, error) {
	user, err := s.creds.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidCredentials) {
			s.security.LoginFailure(email, clientIP, string(errors.ErrInvalidCredentials.Reason))
		}
		return nil, err
	}

	if err := s.gate.CheckLogin(user); err != nil {
		s.security.LoginFailure(email, clientIP, string(errors.ErrAccountRejected.Reason))
		return nil, err
	}

	session, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.security.LoginSuccess(user.ID, string(user.Role), clientIP)
	return session, nil
}

func (s *authService) issue(ctx context.Context, user *model.User) (*Session, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	user.PasswordHash = ""
	return &Session{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

// RefreshToken validates a refresh token and returns a new access token
// carrying the user's current approval flag.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken, auth.TokenRefresh)
	if err != nil {
		return "", errors.ErrInvalidRefreshToken
	}

	storedUserID, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil || storedUserID != claims.UserID {
		return "", errors.ErrInvalidRefreshToken
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return "", errors.ErrInvalidRefreshToken
		}
		return "", err
	}
	if err := s.gate.CheckLogin(user); err != nil {
		return "", err
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates the refresh token and blacklists the access token for
// the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	claims, err := s.jwtService.ValidateToken(refreshToken, auth.TokenRefresh)
	if err != nil {
		return errors.ErrInvalidRefreshToken
	}
	if access != nil && access.UserID != claims.UserID {
		return errors.ErrInvalidRefreshToken
	}

	if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if access != nil && access.ExpiresAt != nil {
		if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, time.Until(access.ExpiresAt.Time)); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}

	s.security.Logout(claims.UserID)
	return nil
}

// CurrentUser returns the account behind a token.
func (s *authService) CurrentUser(ctx context.Context, id auth.Identity) (*model.User, error) {
	user, err := s.users.GetUser(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}
