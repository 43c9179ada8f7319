package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced by ValidatePassword.
const MinPasswordLength = 8

var (
	ErrWeakPassword  = errors.New("password must be at least 8 characters")
	ErrEmptyUsername = errors.New("username is required")
	ErrWrongPassword = errors.New("current password is incorrect")
)

// UserStorage is the persistence side of the credential store.
type UserStorage interface {
	InsertUser(ctx context.Context, username, passwordHash string) error
	PasswordHash(ctx context.Context, username string) (string, bool, error)
	SetPasswordHash(ctx context.Context, username, passwordHash string) (bool, error)
	UserExists(ctx context.Context, username string) (bool, error)
}

// CredentialStore hashes and verifies passwords with bcrypt. Plaintext
// passwords are never persisted or compared.
type CredentialStore struct {
	storage UserStorage
	cost    int
}

// NewCredentialStore uses bcrypt.DefaultCost.
func NewCredentialStore(storage UserStorage) *CredentialStore {
	return &CredentialStore{storage: storage, cost: bcrypt.DefaultCost}
}

// WithCost returns a copy hashing at the given bcrypt cost.
func (c *CredentialStore) WithCost(cost int) *CredentialStore {
	return &CredentialStore{storage: c.storage, cost: cost}
}

// ValidatePassword checks the minimum length required by the web forms.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// CreateUser hashes password and stores the account. A taken username
// surfaces as storage.ErrUserExists.
func (c *CredentialStore) CreateUser(ctx context.Context, username, password string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return c.storage.InsertUser(ctx, username, string(hash))
}

// Verify reports whether password matches the stored hash. Unknown users
// yield false without an error.
func (c *CredentialStore) Verify(ctx context.Context, username, password string) (bool, error) {
	hash, ok, err := c.storage.PasswordHash(ctx, username)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("compare password: %w", err)
	}
	return true, nil
}

// UpdatePassword re-hashes and overwrites without checking the old
// password. Unknown usernames are a no-op.
func (c *CredentialStore) UpdatePassword(ctx context.Context, username, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), c.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := c.storage.SetPasswordHash(ctx, username, string(hash)); err != nil {
		return err
	}
	return nil
}

// ChangePassword verifies current before updating.
func (c *CredentialStore) ChangePassword(ctx context.Context, username, current, next string) error {
	ok, err := c.Verify(ctx, username, current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}
	return c.UpdatePassword(ctx, username, next)
}

// UserExists reports whether username is registered.
func (c *CredentialStore) UserExists(ctx context.Context, username string) (bool, error) {
	return c.storage.UserExists(ctx, username)
}
