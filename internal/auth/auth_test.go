package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"waist/internal/storage"
)

func newTestCredentials(t *testing.T) (*CredentialStore, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewCredentialStore(repo).WithCost(bcrypt.MinCost), repo
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()
	creds, repo := newTestCredentials(t)

	require.NoError(t, creds.CreateUser(ctx, "alice", "s3cret-pass"))

	t.Run("hash is stored, never plaintext", func(t *testing.T) {
		hash, ok, err := repo.PasswordHash(ctx, "alice")
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEqual(t, "s3cret-pass", hash)
		assert.True(t, strings.HasPrefix(hash, "$2"))
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := creds.CreateUser(ctx, "alice", "another-pass")
		assert.ErrorIs(t, err, storage.ErrUserExists)
	})

	t.Run("empty username", func(t *testing.T) {
		assert.ErrorIs(t, creds.CreateUser(ctx, "", "whatever1"), ErrEmptyUsername)
	})

	t.Run("verify", func(t *testing.T) {
		tests := []struct {
			name     string
			username string
			password string
			want     bool
		}{
			{"correct password", "alice", "s3cret-pass", true},
			{"wrong password", "alice", "nope", false},
			{"unknown user", "mallory", "s3cret-pass", false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := creds.Verify(ctx, tt.username, tt.password)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	})

	t.Run("update password skips old password check", func(t *testing.T) {
		require.NoError(t, creds.UpdatePassword(ctx, "alice", "brand-new-pass"))

		ok, err := creds.Verify(ctx, "alice", "brand-new-pass")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = creds.Verify(ctx, "alice", "s3cret-pass")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("update unknown user is a no-op", func(t *testing.T) {
		require.NoError(t, creds.UpdatePassword(ctx, "ghost", "whatever1"))
		exists, err := creds.UserExists(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("change password verifies current", func(t *testing.T) {
		err := creds.ChangePassword(ctx, "alice", "wrong-current", "next-pass-1")
		assert.ErrorIs(t, err, ErrWrongPassword)

		require.NoError(t, creds.ChangePassword(ctx, "alice", "brand-new-pass", "next-pass-1"))
		ok, err := creds.Verify(ctx, "alice", "next-pass-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), ErrWeakPassword)
	assert.NoError(t, ValidatePassword("long-enough"))
}

func TestTokenManager(t *testing.T) {
	m := NewTokenManager("test-secret-key-with-enough-bytes", time.Hour, 10*time.Minute)

	session, err := m.IssueSession("alice")
	require.NoError(t, err)

	username, err := m.ValidateSession(session)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	t.Run("reset token is not a session", func(t *testing.T) {
		reset, err := m.IssueReset("alice")
		require.NoError(t, err)

		_, err = m.ValidateSession(reset)
		assert.ErrorIs(t, err, ErrInvalidToken)

		username, err := m.ValidateReset(reset)
		require.NoError(t, err)
		assert.Equal(t, "alice", username)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("a-completely-different-secret-key", time.Hour, time.Hour)
		_, err := other.ValidateSession(session)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenManager("test-secret-key-with-enough-bytes", time.Minute, time.Minute)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, err := past.IssueSession("alice")
		require.NoError(t, err)

		_, err = m.ValidateSession(old)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateSession("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
