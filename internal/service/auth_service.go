package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/splitshare/internal/auth"
	"github.com/mmynk/splitshare/internal/models"
	"github.com/mmynk/splitshare/internal/storage"
)

// AuthService handles registration and login.
type AuthService struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		store:         store,
		authenticator: authenticator,
		jwtManager:    jwtManager,
	}
}

// Register creates a new user account and returns the user with a session
// token. Any pending group invites matching the email are promoted to
// memberships.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, "", validationErr("email", "must not be empty")
	}
	if name == "" {
		return nil, "", validationErr("name", "must not be empty")
	}

	user, err := s.authenticator.Register(ctx, email, name, password)
	if err != nil {
		slog.Warn("Registration failed", "email", email, "error", err)
		return nil, "", err
	}

	s.promoteInvites(ctx, user)

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	slog.Info("User registered", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Login authenticates a user and returns the user with a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", auth.ErrInvalidCredentials
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		slog.Warn("Login failed", "email", email, "error", err)
		return nil, "", auth.ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	slog.Info("User logged in", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// promoteInvites converts pending email invites into memberships for a
// freshly registered user. Failures are logged, not surfaced: registration
// already succeeded.
func (s *AuthService) promoteInvites(ctx context.Context, user *models.User) {
	groupIDs, err := s.store.ListInvitesByEmail(ctx, user.Email)
	if err != nil {
		slog.Error("Failed to look up pending invites", "email", user.Email, "error", err)
		return
	}

	for _, groupID := range groupIDs {
		if err := s.store.AddGroupMember(ctx, groupID, user.ID); err != nil {
			slog.Error("Failed to promote invite", "group_id", groupID, "user_id", user.ID, "error", err)
			continue
		}
		if err := s.store.RemoveInvite(ctx, groupID, user.Email); err != nil {
			slog.Error("Failed to clear promoted invite", "group_id", groupID, "email", user.Email, "error", err)
		}
		slog.Info("Invite promoted to membership", "group_id", groupID, "user_id", user.ID)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
