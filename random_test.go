package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/ytcsp/go-auth-module"
)

func TestSecureRandomToken(t *testing.T) {
	random := auth.NewSecureRandom()

	t.Run("generates tokens of the requested length", func(t *testing.T) {
		for _, length := range []int{1, 32, 64, 128} {
			token, err := random.Token(length)
			require.NoError(t, err)
			assert.Len(t, token, length)
			assert.True(t, alphanumeric.MatchString(token))
		}
	})

	t.Run("rejects non-positive lengths", func(t *testing.T) {
		_, err := random.Token(0)
		assert.Error(t, err)

		_, err = random.Token(-5)
		assert.Error(t, err)
	})

	t.Run("does not repeat", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			token, err := random.Token(32)
			require.NoError(t, err)
			assert.False(t, seen[token])
			seen[token] = true
		}
	})
}

func TestSecureRandomTokenID(t *testing.T) {
	random := auth.NewSecureRandom()

	first := random.TokenID()
	second := random.TokenID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
