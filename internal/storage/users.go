package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrUserExists is returned when a username is already taken.
var ErrUserExists = errors.New("user already exists")

// InsertUser stores a new username with an already hashed password.
func (r *SQLiteRepository) InsertUser(ctx context.Context, username, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// PasswordHash returns the stored hash for username. The bool is false when
// the user does not exist.
func (r *SQLiteRepository) PasswordHash(ctx context.Context, username string) (string, bool, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE username = ?`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get password hash: %w", err)
	}
	return hash, true, nil
}

// SetPasswordHash overwrites the hash of username. Unknown usernames are
// left alone and reported through the bool.
func (r *SQLiteRepository) SetPasswordHash(ctx context.Context, username, passwordHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE username = ?`, passwordHash, username)
	if err != nil {
		return false, fmt.Errorf("update password hash: %w", err)
	}
	return affected(res)
}

// UserExists reports whether username is registered.
func (r *SQLiteRepository) UserExists(ctx context.Context, username string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username = ?`, username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}
	return true, nil
}

func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		// Extended codes (SQLITE_CONSTRAINT_UNIQUE) share the primary code in the low byte.
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
