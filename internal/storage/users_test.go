package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	exists, err := repo.UserExists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.InsertUser(ctx, "alice", "hash-1"))

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.InsertUser(ctx, "alice", "hash-2")
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("lookup", func(t *testing.T) {
		hash, ok, err := repo.PasswordHash(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "hash-1", hash)

		_, ok, err = repo.PasswordHash(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set hash", func(t *testing.T) {
		found, err := repo.SetPasswordHash(ctx, "alice", "hash-3")
		require.NoError(t, err)
		assert.True(t, found)

		hash, _, err := repo.PasswordHash(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "hash-3", hash)

		found, err = repo.SetPasswordHash(ctx, "nobody", "x")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("users and transactions are independent", func(t *testing.T) {
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
