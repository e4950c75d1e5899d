// Package auth issues and verifies bearer credentials and carries the
// resulting identity through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"strengths-service/internal/domain"
)

const (
	DefaultRegisterTTL = 7 * 24 * time.Hour
	DefaultLoginTTL    = time.Hour
	DefaultBcryptCost  = 10
)

// Revoker remembers credentials invalidated by logout until they expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Config holds signing and hashing parameters.
type Config struct {
	Secret      []byte
	RegisterTTL time.Duration
	LoginTTL    time.Duration
	BcryptCost  int
}

// Claims is the signed payload of a bearer credential.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator hashes passwords and issues/verifies HS256 tokens.
type Authenticator struct {
	cfg     Config
	revoker Revoker
	now     func() time.Time
}

func NewAuthenticator(cfg Config, revoker Revoker) (*Authenticator, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth secret not configured")
	}
	if cfg.RegisterTTL <= 0 {
		cfg.RegisterTTL = DefaultRegisterTTL
	}
	if cfg.LoginTTL <= 0 {
		cfg.LoginTTL = DefaultLoginTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	return &Authenticator{cfg: cfg, revoker: revoker, now: time.Now}, nil
}

func (a *Authenticator) RegisterTTL() time.Duration { return a.cfg.RegisterTTL }
func (a *Authenticator) LoginTTL() time.Duration    { return a.cfg.LoginTTL }

// HashPassword returns a bcrypt hash of password.
func (a *Authenticator) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func (a *Authenticator) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Issue signs a credential for user valid for ttl.
func (a *Authenticator) Issue(user domain.User, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a credential and returns the identity it encodes.
func (a *Authenticator) Verify(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing user id", domain.ErrInvalidToken)
	}

	if a.revoker != nil && claims.ID != "" {
		revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return domain.Identity{}, domain.ErrTokenRevoked
		}
	}

	identity := domain.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.Expires = claims.ExpiresAt.Time
	}
	return identity, nil
}

// Revoke invalidates the credential behind identity until it would have expired.
func (a *Authenticator) Revoke(ctx context.Context, identity domain.Identity) error {
	if a.revoker == nil || identity.TokenID == "" {
		return nil
	}
	until := identity.Expires
	if until.IsZero() {
		until = a.now().Add(a.cfg.RegisterTTL)
	}
	return a.revoker.Revoke(ctx, identity.TokenID, until)
}
