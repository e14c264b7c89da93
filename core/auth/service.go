// ABOUTME: Login and token service behind the GReader ClientLogin flow
// ABOUTME: Tokens are 32 random bytes, stored as SHA-256 hashes, 30 day expiry

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"yana/core/domain"
	"yana/core/interfaces"
)

// TokenTTL is the login token lifetime
const TokenTTL = 30 * 24 * time.Hour

// ErrInvalidCredentials is returned for unknown users and wrong passwords
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service authenticates users and manages login tokens
type Service struct {
	users  interfaces.UserStore
	tokens interfaces.TokenStore
	logger interfaces.Logger
}

func NewService(users interfaces.UserStore, tokens interfaces.TokenStore, logger interfaces.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Login verifies the credentials and issues a fresh token. The raw token is
// returned to the caller; only its hash is persisted.
func (s *Service) Login(ctx context.Context, name, password string) (string, error) {
	user, err := s.users.GetUserByName(ctx, name)
	if err != nil {
		return "", err
	}
	if user == nil || !VerifyPassword(user.Password, password) {
		s.logger.Warn("login rejected", map[string]interface{}{"user": name})
		return "", ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	expiry := time.Now().UTC().Add(TokenTTL)
	if err := s.tokens.SaveToken(ctx, user.ID, HashToken(token), expiry); err != nil {
		return "", err
	}

	s.logger.Info("user logged in", map[string]interface{}{"user_id": user.ID})
	return token, nil
}

// Authenticate resolves a raw token to its user. Unknown and expired
// tokens return nil without error.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}

	userID, ok, err := s.tokens.LookupToken(ctx, HashToken(token))
	if err != nil || !ok {
		return nil, err
	}
	return s.users.GetUser(ctx, userID)
}

// WriteToken derives the short-lived write token the GReader /token
// endpoint hands out. It is stateless: a keyed hash of the login token,
// verifiable without storage.
func (s *Service) WriteToken(token string) string {
	sum := sha256.Sum256([]byte("write:" + token))
	return hex.EncodeToString(sum[:])[:32]
}

// CheckWriteToken verifies a write token against the caller's login token
func (s *Service) CheckWriteToken(token, writeToken string) bool {
	want := s.WriteToken(token)
	return subtle.ConstantTimeCompare([]byte(want), []byte(writeToken)) == 1
}

// SweepExpired drops expired token rows; called periodically by the
// scheduler.
func (s *Service) SweepExpired(ctx context.Context) error {
	return s.tokens.DeleteExpired(ctx)
}

// HashPassword hashes a clear-text password for storage
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares a stored hash against a clear-text candidate
func VerifyPassword(storedHash, password string) bool {
	candidate := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(candidate)) == 1
}

// HashToken hashes a raw token the way it is stored at rest
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
