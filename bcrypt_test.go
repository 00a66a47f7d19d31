package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/ytcsp/go-auth-module"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true, // bcrypt can hash empty strings!
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := auth.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = auth.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	// Create a known password hash
	password := "testPassword123!"
	hash, err := auth.HashPassword(password)
	assert.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Invalid hash",
			password: password,
			hash:     "invalidhash",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.hash == hash {
					assert.Equal(t, auth.ErrMismatchedHashAndPassword, err)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPasswordNeedsRehash(t *testing.T) {
	hash, err := auth.HashPassword("securePassword123!")
	assert.NoError(t, err)

	t.Run("current cost does not need rehash", func(t *testing.T) {
		assert.False(t, auth.PasswordNeedsRehash(hash))
	})

	t.Run("cost change flags existing hashes", func(t *testing.T) {
		previous := auth.DefaultBcryptCost
		auth.DefaultBcryptCost = previous + 1
		defer func() { auth.DefaultBcryptCost = previous }()

		assert.True(t, auth.PasswordNeedsRehash(hash))
	})

	t.Run("garbage hash needs rehash", func(t *testing.T) {
		assert.True(t, auth.PasswordNeedsRehash("not-a-bcrypt-hash"))
	})
}

func TestRandomPasswordHash(t *testing.T) {
	first := auth.RandomPasswordHash()
	second := auth.RandomPasswordHash()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)

	// the plaintext is thrown away, nothing should compare against it
	assert.Error(t, auth.ComparePasswordAndHash("", first))
}
