package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifySecret(t *testing.T) {
	t.Run("bcrypt hash matches", func(t *testing.T) {
		hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
		require.NoError(t, err)

		assert.True(t, verifySecret(string(hash), "s3cret"))
	})

	t.Run("bcrypt hash rejects wrong password", func(t *testing.T) {
		hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
		require.NoError(t, err)

		assert.False(t, verifySecret(string(hash), "wrong"))
	})

	t.Run("plain text matches", func(t *testing.T) {
		assert.True(t, verifySecret("legacy-password", "legacy-password"))
	})

	t.Run("plain text rejects wrong password", func(t *testing.T) {
		assert.False(t, verifySecret("legacy-password", "wrong"))
	})

	t.Run("plain text starting like a hash prefix is still compared as hash", func(t *testing.T) {
		// A stored value with the $2a$ prefix is always treated as bcrypt,
		// so an identical submitted string is not accepted verbatim.
		assert.False(t, verifySecret("$2a$not-actually-a-hash", "$2a$not-actually-a-hash"))
	})
}

func TestGenerateOTPCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := generateOTPCode()
		require.NoError(t, err)

		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit", code)
		}
		seen[code] = true
	}

	// 100 draws from a million-value space colliding down to a handful would
	// indicate broken entropy.
	assert.Greater(t, len(seen), 90)
}
