package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"strengths-service/internal/auth"
	"strengths-service/internal/domain"
	"strengths-service/internal/observability"
)

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	TempID   string
}

// LoginInput is a validated login request.
type LoginInput struct {
	Email    string
	Password string
	TempID   string
}

// AccountService registers and authenticates users.
type AccountService struct {
	users   UserRepository
	results ResultRepository
	authn   *auth.Authenticator
	now     func() time.Time
}

func NewAccountService(users UserRepository, results ResultRepository, authn *auth.Authenticator) *AccountService {
	return &AccountService{users: users, results: results, authn: authn, now: time.Now}
}

// Register creates the account, claims any anonymous results for tempId and
// returns a long-lived credential.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (string, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return "", domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.authn.HashPassword(in.Password)
	if err != nil {
		return "", err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrUsernameTaken) {
			return "", err
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	// The account exists now; a failed claim can be retried by logging in with the tempId.
	if err := s.claim(ctx, in.TempID, user.ID); err != nil {
		observability.LoggerFromContext(ctx).Warn("claim on register failed",
			"user_id", user.ID,
			"error", err,
		)
	}
	return s.authn.Issue(user, s.authn.RegisterTTL())
}

// Login verifies credentials, claims any anonymous results for tempId and
// returns a short-lived credential.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (string, error) {
	user, err := s.users.FindUserByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !s.authn.CheckPassword(user.PasswordHash, in.Password) {
		return "", domain.ErrInvalidCredentials
	}
	if err := s.claim(ctx, in.TempID, user.ID); err != nil {
		return "", err
	}
	return s.authn.Issue(user, s.authn.LoginTTL())
}

// Logout revokes the caller's credential.
func (s *AccountService) Logout(ctx context.Context, identity domain.Identity) error {
	return s.authn.Revoke(ctx, identity)
}

// Username resolves the caller's display name.
func (s *AccountService) Username(ctx context.Context, identity domain.Identity) (string, error) {
	user, err := s.users.FindUserByID(ctx, identity.UserID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func (s *AccountService) claim(ctx context.Context, tempID, userID string) error {
	if tempID == "" {
		return nil
	}
	n, err := s.results.AttachTempID(ctx, tempID, userID)
	if err != nil {
		return fmt.Errorf("attach results: %w", err)
	}
	observability.LoggerFromContext(ctx).Info("anonymous results attached", "user_id", userID, "count", n)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
