package database

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"webm-trimmer/internal/logging"
)

// DefaultSessionDuration is the length of time a session remains valid.
const DefaultSessionDuration = 7 * 24 * time.Hour // 7 days

// MinPasswordLength is the shortest password SetPassword accepts.
const MinPasswordLength = 6

var (
	// ErrInvalidPassword is returned for a wrong password or when none is set.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidSession is returned for unknown, malformed or expired tokens.
	ErrInvalidSession = errors.New("invalid session")
)

// HasUsers reports whether a password has been configured. Login is only
// enforced once it has.
func (d *Database) HasUsers(ctx context.Context) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return false
	}
	return count > 0
}

// SetPassword creates the single user or replaces its password. Existing
// sessions are invalidated.
func (d *Database) SetPassword(ctx context.Context, password string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_password", start, err) }()

	if len(password) < MinPasswordLength {
		err = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("failed to roll back password change: %v", rbErr)
			}
		}
	}()

	result, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = strftime('%s', 'now')",
		string(hash),
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err = tx.ExecContext(ctx, "INSERT INTO users (password_hash) VALUES (?)", string(hash)); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	err = tx.Commit()
	return err
}

// ValidatePassword checks the password and returns the user if valid.
func (d *Database) ValidatePassword(ctx context.Context, password string) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_password_hash", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user User
	var createdAt, updatedAt int64

	err = d.db.QueryRowContext(ctx,
		"SELECT id, password_hash, created_at, updated_at FROM users LIMIT 1",
	).Scan(&user.ID, &user.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		err = ErrInvalidPassword
		return nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		err = ErrInvalidPassword
		return nil, err
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// CreateSession creates a new session for a user. The returned token is the
// only copy of the secret; the database stores its SHA-256.
func (d *Database) CreateSession(ctx context.Context, userID int64) (*Session, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_session", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tokenBytes := make([]byte, 32)
	if _, err = rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token := hex.EncodeToString(tokenBytes)
	now := time.Now()
	expiresAt := now.Add(d.sessionDuration)

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token, expires_at) VALUES (?, ?, ?)",
		userID, hashToken(tokenBytes), expiresAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	id, _ := result.LastInsertId()

	return &Session{
		ID:        id,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// ValidateSession checks if a session token is valid.
func (d *Database) ValidateSession(ctx context.Context, token string) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("validate_session", start, err) }()

	tokenBytes, err := hex.DecodeString(token)
	if err != nil || len(tokenBytes) == 0 {
		err = ErrInvalidSession
		return nil, err
	}
	tokenHash := hashToken(tokenBytes)

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user User
	var expiresAt, createdAt, updatedAt int64

	err = d.db.QueryRowContext(ctx, `
		SELECT s.expires_at, u.id, u.created_at, u.updated_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ?
	`, tokenHash).Scan(&expiresAt, &user.ID, &createdAt, &updatedAt)
	if err != nil {
		err = ErrInvalidSession
		return nil, err
	}

	if time.Now().Unix() > expiresAt {
		// Expired rows are removed by CleanExpired.
		err = ErrInvalidSession
		return nil, err
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

// DeleteSession removes a session.
func (d *Database) DeleteSession(ctx context.Context, token string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_session", start, err) }()

	tokenBytes, err := hex.DecodeString(token)
	if err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", hashToken(tokenBytes))
	return err
}

// CleanExpired removes expired sessions and flash messages nobody collected.
func (d *Database) CleanExpired(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("clean_expired", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().Unix()
	res, err := d.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", now)
	if err != nil {
		return fmt.Errorf("failed to clean sessions: %w", err)
	}
	sessions, _ := res.RowsAffected()

	res, err = d.db.ExecContext(ctx, "DELETE FROM flashes WHERE expires_at < ?", now)
	if err != nil {
		return fmt.Errorf("failed to clean flashes: %w", err)
	}
	flashes, _ := res.RowsAffected()

	if sessions > 0 || flashes > 0 {
		logging.Debug("Cleaned %d expired sessions and %d stale flashes", sessions, flashes)
	}
	return nil
}

func hashToken(tokenBytes []byte) string {
	hash := sha256.Sum256(tokenBytes)
	return hex.EncodeToString(hash[:])
}
