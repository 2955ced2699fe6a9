package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campusevents/internal/apperr"
	"campusevents/internal/audit"
	"campusevents/internal/auth"
	"campusevents/internal/model"

	"go.uber.org/zap"
)

const minPasswordLen = 8

// TokenPair is the session material handed to a client.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService handles registration, login, refresh, and logout.
type AuthService struct {
	users   UserStore
	tokens  *auth.TokenManager
	refresh auth.RefreshStore
	audit   audit.Recorder
	log     *zap.Logger
}

// NewAuthService constructs an AuthService with its dependencies.
func NewAuthService(users UserStore, tokens *auth.TokenManager, refresh auth.RefreshStore, rec audit.Recorder, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, refresh: refresh, audit: rec, log: log}
}

// Register creates an account with the user role and starts a session.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, *TokenPair, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !isValidEmail(email) {
		return nil, nil, apperr.Validation("email", "must be a valid email address")
	}
	if len(req.Password) < minPasswordLen {
		return nil, nil, apperr.Validation("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, hash, model.RoleUser)
	if err != nil {
		if errors.Is(err, apperr.ErrEmailTaken) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.audit.Record(ctx, model.ActionUserRegistered, user.ID, map[string]any{"email": user.Email})
	return user, pair, nil
}

// Login verifies credentials and starts a session. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.User, *TokenPair, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil, apperr.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, nil, apperr.ErrInvalidCredentials
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.audit.Record(ctx, model.ActionUserLogin, user.ID, nil)
	return user, pair, nil
}

// Refresh rotates the refresh token and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, userID, refreshToken string) (*TokenPair, error) {
	if err := s.refresh.Validate(ctx, userID, auth.HashToken(refreshToken)); err != nil {
		if errors.Is(err, auth.ErrRefreshInvalid) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, fmt.Errorf("validate refresh token: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.startSession(ctx, user)
}

// Logout revokes the caller's refresh token.
func (s *AuthService) Logout(ctx context.Context, identity auth.Identity) error {
	if err := s.refresh.Delete(ctx, identity.UserID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.audit.Record(ctx, model.ActionUserLogout, identity.UserID, nil)
	return nil
}

func (s *AuthService) startSession(ctx context.Context, user *model.User) (*TokenPair, error) {
	access, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.refresh.Save(ctx, user.ID, auth.HashToken(refresh), auth.RefreshTokenTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
