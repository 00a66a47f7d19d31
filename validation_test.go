package auth_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/ytcsp/go-auth-module"
)

func TestLoginPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload auth.LoginPayload
		wantErr bool
	}{
		{
			name:    "valid payload",
			payload: auth.LoginPayload{Email: "alice@example.com", Password: "secret"},
			wantErr: false,
		},
		{
			name:    "missing email",
			payload: auth.LoginPayload{Password: "secret"},
			wantErr: true,
		},
		{
			name:    "malformed email",
			payload: auth.LoginPayload{Email: "not-an-email", Password: "secret"},
			wantErr: true,
		},
		{
			name:    "missing password",
			payload: auth.LoginPayload{Email: "alice@example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterPayloadValidate(t *testing.T) {
	valid := auth.RegisterPayload{
		FirstName:            "Alice",
		LastName:             "Smith",
		Email:                "alice@example.com",
		Password:             "longenough",
		PasswordConfirmation: "longenough",
	}

	t.Run("accepts a valid payload", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		p := valid
		p.Password = "short"
		p.PasswordConfirmation = "short"
		assert.Error(t, p.Validate())
	})

	t.Run("rejects mismatched confirmation", func(t *testing.T) {
		p := valid
		p.PasswordConfirmation = "different-password"
		assert.Error(t, p.Validate())
	})

	t.Run("rejects an unparsable phone number", func(t *testing.T) {
		p := valid
		p.Phone = "not-a-phone"
		assert.Error(t, p.Validate())
	})

	t.Run("accepts a blank phone number", func(t *testing.T) {
		p := valid
		p.Phone = ""
		assert.NoError(t, p.Validate())
	})

	t.Run("failures carry field metadata", func(t *testing.T) {
		p := valid
		p.Email = "nope"

		err := p.Validate()
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, auth.TextCodeValidationFailed, richErr.TextCode)

		fields, ok := richErr.Metadata["fields"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, fields, "email")
	})
}

func TestPasswordResetPayloadValidate(t *testing.T) {
	valid := auth.PasswordResetPayload{
		Email:                "alice@example.com",
		Token:                "some-reset-secret",
		Password:             "longenough",
		PasswordConfirmation: "longenough",
	}

	t.Run("accepts a valid payload", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("requires the token", func(t *testing.T) {
		p := valid
		p.Token = ""
		assert.Error(t, p.Validate())
	})

	t.Run("requires matching confirmation", func(t *testing.T) {
		p := valid
		p.PasswordConfirmation = "other"
		assert.Error(t, p.Validate())
	})
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "US number to E.164", in: "(212) 555-0100", want: "+12125550100"},
		{name: "already E.164", in: "+442071838750", want: "+442071838750"},
		{name: "blank stays blank", in: "  ", want: ""},
		{name: "unparsable passes through", in: "not-a-phone", want: "not-a-phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.NormalizePhoneNumber(tt.in))
		})
	}
}
