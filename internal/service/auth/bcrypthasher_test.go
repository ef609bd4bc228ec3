package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	hasher := BcryptHasher{}

	t.Run("hash and compare ok", func(t *testing.T) {
		hash, err := hasher.Hash("correct horse battery staple")

		require.NoError(t, err)
		require.NotEmpty(t, hash)
		require.NotEqual(t, "correct horse battery staple", hash, "hash must not be the plaintext")
		require.NoError(t, hasher.Compare(hash, "correct horse battery staple"))
	})

	t.Run("compare fails on wrong password", func(t *testing.T) {
		hash, err := hasher.Hash("correct horse battery staple")
		require.NoError(t, err)

		err = hasher.Compare(hash, "incorrect horse battery staple")

		require.Error(t, err)
	})

	t.Run("password longer than 72 bytes ok", func(t *testing.T) {
		// bcrypt alone rejects inputs past 72 bytes, the sha256 pre-hash
		// must make length irrelevant
		long := strings.Repeat("correct horse battery staple ", 10)

		hash, err := hasher.Hash(long)

		require.NoError(t, err)
		require.NoError(t, hasher.Compare(hash, long))
		require.Error(t, hasher.Compare(hash, long+"x"), "tail bytes must still matter")
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		first, err := hasher.Hash("pwd")
		require.NoError(t, err)
		second, err := hasher.Hash("pwd")
		require.NoError(t, err)

		require.NotEqual(t, first, second, "bcrypt salts every hash")
	})
}
