package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher(t *testing.T) {
	// Minimum cost keeps the test fast; production uses the configured cost.
	hasher := NewPasswordHasher(4)

	t.Run("hash and verify round trip", func(t *testing.T) {
		hash, err := hasher.Hash("Passw0rd")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("Passw0rd", hash))
	})

	t.Run("hash is not the plaintext", func(t *testing.T) {
		hash, err := hasher.Hash("Passw0rd")
		require.NoError(t, err)
		assert.NotEqual(t, "Passw0rd", hash)
		assert.True(t, strings.HasPrefix(hash, "$2"))
	})

	t.Run("same password produces different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash("Passw0rd")
		require.NoError(t, err)
		hash2, err := hasher.Hash("Passw0rd")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("wrong password fails verification", func(t *testing.T) {
		hash, err := hasher.Hash("Passw0rd")
		require.NoError(t, err)
		assert.False(t, hasher.Verify("passw0rd", hash))
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.Error(t, err)
	})

	t.Run("verify against garbage hash fails without error", func(t *testing.T) {
		assert.False(t, hasher.Verify("Passw0rd", "not-a-bcrypt-hash"))
	})
}
