// ABOUTME: User accounts and login token persistence
// ABOUTME: Tokens are stored as SHA-256 hashes and swept after expiry

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"yana/core/domain"
)

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUser(ctx, "SELECT id, name, email, password FROM users WHERE id = ?", id)
}

func (s *Store) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	return s.getUser(ctx, "SELECT id, name, email, password FROM users WHERE name = ?", name)
}

func (s *Store) getUser(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Name, &user.Email, &user.Password)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateUser inserts an account; Password must already be hashed.
// Used by the startup bootstrap, not part of the storage interfaces.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password) VALUES (?, ?, ?)",
		user.Name, user.Email, user.Password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	return err
}

func (s *Store) SaveToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO auth_tokens (token_hash, user_id, expires_at)
		VALUES (?, ?, ?)`, tokenHash, userID, expiresAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (s *Store) LookupToken(ctx context.Context, tokenHash string) (int64, bool, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id FROM auth_tokens WHERE token_hash = ? AND expires_at > ?",
		tokenHash, time.Now().UTC().Unix()).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up token: %w", err)
	}
	return userID, true, nil
}

func (s *Store) DeleteExpired(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM auth_tokens WHERE expires_at <= ?", time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to sweep expired tokens: %w", err)
	}
	return nil
}
